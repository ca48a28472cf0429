// Package decoder turns exported trajectory-planning documents into
// draw-ready paths, reachable boxes, unsafe boxes and panel text.
package decoder

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode unwraps the transport encoding delivered by the file picker
// (base64, optionally as a data URL) and decodes the document. A payload that
// already starts with '{' is taken as plain JSON.
func Decode(raw []byte) (*Result, error) {
	data, err := unwrapTransport(raw)
	if err != nil {
		return nil, malformed(err)
	}
	return DecodeDocument(data)
}

// DecodeDocument parses and validates JSON, then derives every drawable
// record. Any failure aborts the whole document.
func DecodeDocument(data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, malformed(errors.New("payload is not UTF-8 text"))
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed(fmt.Errorf("parse JSON: %w", err))
	}
	if err := validate.Struct(doc); err != nil {
		return nil, malformed(describeValidation(err))
	}
	return transform(&doc)
}

func unwrapTransport(raw []byte) ([]byte, error) {
	text := bytes.TrimSpace(raw)
	if len(text) == 0 {
		return nil, errors.New("empty payload")
	}
	if text[0] == '{' {
		return text, nil
	}
	if bytes.HasPrefix(text, []byte("data:")) {
		header, body, ok := bytes.Cut(text, []byte(","))
		if !ok {
			return nil, errors.New("data URL without payload")
		}
		if !bytes.HasSuffix(header, []byte(";base64")) {
			return nil, fmt.Errorf("unsupported data URL encoding %q", header)
		}
		text = body
	}
	text = bytes.TrimRight(text, "=")
	out := make([]byte, base64.RawStdEncoding.DecodedLen(len(text)))
	n, err := base64.RawStdEncoding.Decode(out, text)
	if err != nil {
		return nil, fmt.Errorf("base64 payload: %w", err)
	}
	return out[:n], nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		fields = append(fields, ns)
	}
	return fmt.Errorf("missing required field(s): %s", strings.Join(fields, ", "))
}

func transform(doc *Document) (*Result, error) {
	res := &Result{Paths: make([]Path, 0, len(*doc.Paths))}
	for _, p := range *doc.Paths {
		res.Paths = append(res.Paths, buildPath(p))
	}

	var collisions []string
	for i, a := range *doc.Actions {
		idx := *a.PathIndex
		if idx < 0 || idx >= len(res.Paths) {
			return nil, &DecodeError{
				Kind:   InvalidPathIndex,
				Action: i,
				Err:    fmt.Errorf("pathIndex %d, document has %d path(s)", idx, len(res.Paths)),
			}
		}
		t, err := buildTrajectory(a, idx, res.Paths[idx])
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Action = i
			}
			return nil, err
		}
		res.Trajectories = append(res.Trajectories, t)
		res.Details.Trajectories = append(res.Details.Trajectories, trajectoryText(t))
		for _, u := range t.Unsafe {
			collisions = append(collisions, collisionLine(u))
		}
	}
	if len(collisions) > 0 {
		res.Details.Collisions = collisionHeader + strings.Join(collisions, "")
	}
	return res, nil
}

func buildPath(p PathRecord) Path {
	c := p.Color
	path := Path{
		Name:      *p.Name,
		Color:     ColorFromUnit(*c.R, *c.G, *c.B),
		Waypoints: make([]Point, 0, len(*p.Waypoints)),
	}
	for _, wp := range *p.Waypoints {
		path.Waypoints = append(path.Waypoints, Point{X: *wp.X, Y: *wp.Z})
	}
	return path
}

func buildTrajectory(a ActionRecord, pathIndex int, path Path) (Trajectory, error) {
	t := Trajectory{
		Name:      *a.Name,
		PathIndex: pathIndex,
		PathName:  path.Name,
		Color:     path.Color,
		StartTime: *a.StartTime,
		Speed:     *a.Speed,
	}

	xs, zs := *a.ReachableX, *a.ReachableZ
	n := min(len(xs), len(zs))
	if n == 0 {
		return t, &DecodeError{
			Kind: EmptyReachableSet,
			Err:  fmt.Errorf("%d X and %d Z reachable interval(s)", len(xs), len(zs)),
		}
	}

	t.Reachable = make([]ReachableBox, 0, n)
	for i := 0; i < n; i++ {
		x, z := xs[i], zs[i]
		// the last paired X interval decides the rotation of the whole action
		t.Rotation = *x.Angle
		t.Reachable = append(t.Reachable, ReachableBox{
			CenterX: (*x.Lo + *x.Hi) / 2,
			CenterY: (*z.Lo + *z.Hi) / 2,
			Width:   math.Abs(*x.Hi - *x.Lo),
			Height:  math.Abs(*z.Hi - *z.Lo),
			Time:    *x.Time,
			Desc:    reachableDesc(path.Name, *x.Time),
		})
	}
	for i := range t.Reachable {
		t.Reachable[i].Rotation = t.Rotation
	}

	m := min(len(a.UnsafeX), len(a.UnsafeZ))
	for i := 0; i < m; i++ {
		x, z := a.UnsafeX[i], a.UnsafeZ[i]
		if !x.present() || !z.present() {
			continue
		}
		t.Unsafe = append(t.Unsafe, UnsafeBox{
			X:        *x.Lo,
			Y:        *z.Lo,
			Width:    math.Abs(*x.Hi - *x.Lo),
			Height:   math.Abs(*z.Hi - *z.Lo),
			Rotation: t.Rotation,
			Time:     *x.Time,
			Desc:     unsafeDesc(path.Name, *x.Time),
		})
	}
	return t, nil
}
