package decoder

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "paths": [
    {"P_name": "A", "pathColor": {"r": 1, "g": 0, "b": 0},
     "pathwaypoints": [{"x": 0, "z": 0}, {"x": 10, "z": 0}]},
    {"P_name": "B", "pathColor": {"r": 0.2, "g": 0.5, "b": 1},
     "pathwaypoints": [{"x": -5, "z": 3}]}
  ],
  "actions": [
    {"myName": "car1", "pathIndex": 0, "starttime": 120, "mySpeed": 50,
     "reachableSetsX": [
       {"lo": -1, "hi": 1, "time": 60, "angle": 0},
       {"lo": 2, "hi": 5, "time": 90, "angle": 0.25}
     ],
     "reachableSetsZ": [{"lo": -2, "hi": 2}, {"lo": 1, "hi": 2}],
     "unsafeSetsX": [{"lo": 2, "hi": 4, "time": 90}, {}],
     "unsafeSetsZ": [{"lo": 1, "hi": 1.5}, {"lo": 0, "hi": 1}]},
    {"myName": "car2", "pathIndex": 1, "starttime": 0, "mySpeed": 30.5,
     "reachableSetsX": [{"lo": 0, "hi": 2, "time": 30, "angle": 1.5}],
     "reachableSetsZ": [{"lo": 0, "hi": 2}],
     "unsafeSetsX": [],
     "unsafeSetsZ": []}
  ]
}`

func decodeString(t *testing.T, doc string) *Result {
	t.Helper()
	res, err := DecodeDocument([]byte(doc))
	require.NoError(t, err)
	return res
}

func TestDecodePathScenario(t *testing.T) {
	res := decodeString(t, sampleDoc)
	require.Len(t, res.Paths, 2)

	a := res.Paths[0]
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, "ff0000", a.Color.Hex())
	assert.Equal(t, []Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, a.Waypoints)

	assert.Equal(t, Color{R: 51, G: 128, B: 255}, res.Paths[1].Color)
	assert.Equal(t, "3380ff", res.Paths[1].Color.Hex())
}

func TestReachableBoxScenario(t *testing.T) {
	doc := `{"paths":[{"P_name":"A","pathColor":{"r":1,"g":0,"b":0},"pathwaypoints":[]}],
	"actions":[{"myName":"t","pathIndex":0,"starttime":0,"mySpeed":1,
	"reachableSetsX":[{"lo":-1,"hi":1,"time":60,"angle":0}],
	"reachableSetsZ":[{"lo":-2,"hi":2}]}]}`
	res := decodeString(t, doc)
	require.Len(t, res.Trajectories, 1)
	require.Len(t, res.Trajectories[0].Reachable, 1)

	box := res.Trajectories[0].Reachable[0]
	assert.Equal(t, 0.0, box.CenterX)
	assert.Equal(t, 0.0, box.CenterY)
	assert.Equal(t, 2.0, box.Width)
	assert.Equal(t, 4.0, box.Height)
	assert.Equal(t, 0.0, box.Rotation)
	assert.True(t, strings.HasSuffix(box.Desc, "1.0sec"), box.Desc)
	assert.Equal(t, "A | Reachable Set interval at time: 1.0sec", box.Desc)
}

func TestReachableCentersAndSizes(t *testing.T) {
	res := decodeString(t, sampleDoc)
	boxes := res.Trajectories[0].Reachable
	require.Len(t, boxes, 2)

	assert.InDelta(t, 3.5, boxes[1].CenterX, 1e-12)
	assert.InDelta(t, 1.5, boxes[1].CenterY, 1e-12)
	assert.InDelta(t, 3.0, boxes[1].Width, 1e-12)
	assert.InDelta(t, 1.0, boxes[1].Height, 1e-12)
}

func TestReversedIntervalUsesAbsoluteSize(t *testing.T) {
	doc := `{"paths":[{"P_name":"A","pathColor":{"r":0,"g":0,"b":0},"pathwaypoints":[]}],
	"actions":[{"myName":"t","pathIndex":0,"starttime":0,"mySpeed":1,
	"reachableSetsX":[{"lo":4,"hi":1,"time":0,"angle":0}],
	"reachableSetsZ":[{"lo":3,"hi":-3}]}]}`
	box := decodeString(t, doc).Trajectories[0].Reachable[0]
	assert.Equal(t, 2.5, box.CenterX)
	assert.Equal(t, 3.0, box.Width)
	assert.Equal(t, 0.0, box.CenterY)
	assert.Equal(t, 6.0, box.Height)
}

func TestRotationTakenFromLastPairedInterval(t *testing.T) {
	res := decodeString(t, sampleDoc)
	tr := res.Trajectories[0]
	assert.Equal(t, 0.25, tr.Rotation)
	for _, b := range tr.Reachable {
		assert.Equal(t, 0.25, b.Rotation)
	}
	for _, u := range tr.Unsafe {
		assert.Equal(t, 0.25, u.Rotation)
	}
	assert.Equal(t, 1.5, res.Trajectories[1].Rotation)
}

func TestMismatchedReachableLengthsTruncate(t *testing.T) {
	doc := `{"paths":[{"P_name":"A","pathColor":{"r":0,"g":0,"b":0},"pathwaypoints":[]}],
	"actions":[{"myName":"t","pathIndex":0,"starttime":0,"mySpeed":1,
	"reachableSetsX":[{"lo":0,"hi":1,"time":0,"angle":0.1},{"lo":1,"hi":2,"time":1,"angle":0.2},{"lo":2,"hi":3,"time":2,"angle":0.3}],
	"reachableSetsZ":[{"lo":0,"hi":1},{"lo":1,"hi":2}]}]}`
	tr := decodeString(t, doc).Trajectories[0]
	require.Len(t, tr.Reachable, 2)
	assert.Equal(t, 0.2, tr.Rotation)
}

func TestInvalidPathIndex(t *testing.T) {
	for _, idx := range []string{"2", "-1", "7"} {
		doc := `{"paths":[{"P_name":"A","pathColor":{"r":0,"g":0,"b":0},"pathwaypoints":[]},
		{"P_name":"B","pathColor":{"r":0,"g":0,"b":0},"pathwaypoints":[]}],
		"actions":[{"myName":"t","pathIndex":` + idx + `,"starttime":0,"mySpeed":1,
		"reachableSetsX":[{"lo":0,"hi":1,"time":0,"angle":0}],"reachableSetsZ":[{"lo":0,"hi":1}]}]}`
		res, err := DecodeDocument([]byte(doc))
		assert.Nil(t, res)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidPathIndex), "idx=%s err=%v", idx, err)
		assert.Equal(t, InvalidPathIndex, KindOf(err))

		var de *DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, 0, de.Action)
	}
}

func TestEmptyReachableSet(t *testing.T) {
	cases := map[string]string{
		"both empty": `"reachableSetsX":[],"reachableSetsZ":[]`,
		"z empty":    `"reachableSetsX":[{"lo":0,"hi":1,"time":0,"angle":0}],"reachableSetsZ":[]`,
	}
	for name, sets := range cases {
		t.Run(name, func(t *testing.T) {
			doc := `{"paths":[{"P_name":"A","pathColor":{"r":0,"g":0,"b":0},"pathwaypoints":[]}],
			"actions":[{"myName":"ok","pathIndex":0,"starttime":0,"mySpeed":1,
			"reachableSetsX":[{"lo":0,"hi":1,"time":0,"angle":0}],"reachableSetsZ":[{"lo":0,"hi":1}]},
			{"myName":"t","pathIndex":0,"starttime":0,"mySpeed":1,` + sets + `}]}`
			res, err := DecodeDocument([]byte(doc))
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrEmptyReachableSet)

			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, 1, de.Action)
		})
	}
}

func TestMalformedDocuments(t *testing.T) {
	cases := map[string]string{
		"not json":        `paths: []`,
		"array root":      `[1, 2]`,
		"missing actions": `{"paths": []}`,
		"missing paths":   `{"actions": []}`,
		"null paths":      `{"paths": null, "actions": []}`,
		"missing angle": `{"paths":[{"P_name":"A","pathColor":{"r":0,"g":0,"b":0},"pathwaypoints":[]}],
			"actions":[{"myName":"t","pathIndex":0,"starttime":0,"mySpeed":1,
			"reachableSetsX":[{"lo":0,"hi":1,"time":0}],"reachableSetsZ":[{"lo":0,"hi":1}]}]}`,
		"missing color channel": `{"paths":[{"P_name":"A","pathColor":{"r":0,"g":0},"pathwaypoints":[]}],"actions":[]}`,
		"waypoint without z":    `{"paths":[{"P_name":"A","pathColor":{"r":0,"g":0,"b":0},"pathwaypoints":[{"x":1}]}],"actions":[]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := Decode([]byte(doc))
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Equal(t, Malformed, KindOf(err))
		})
	}
}

func TestMalformedNamesField(t *testing.T) {
	doc := `{"paths":[{"P_name":"A","pathColor":{"r":0,"g":0,"b":0},"pathwaypoints":[{"x":1}]}],"actions":[]}`
	_, err := DecodeDocument([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paths[0].pathwaypoints[0].z")
}

func TestEmptyDocumentIsValid(t *testing.T) {
	res := decodeString(t, `{"paths": [], "actions": []}`)
	assert.Empty(t, res.Paths)
	assert.Empty(t, res.Trajectories)
	assert.Equal(t, []string{"", ""}, res.Details.Blocks())
}

func TestDecodeTransportEncodings(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString([]byte(sampleDoc))
	payloads := map[string]string{
		"plain json":        sampleDoc,
		"base64":            b64,
		"base64 unpadded":   strings.TrimRight(b64, "="),
		"data url":          "data:application/json;base64," + b64,
		"surrounding space": "\n  " + b64 + "\n",
	}
	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			res, err := Decode([]byte(p))
			require.NoError(t, err)
			assert.Len(t, res.Paths, 2)
			assert.Len(t, res.Trajectories, 2)
		})
	}
}

const nonUTF8Doc = "{\"paths\": [{\"P_name\": \"\xff\xfe\", \"pathColor\": {\"r\": 0, \"g\": 0, \"b\": 0}, \"pathwaypoints\": []}], \"actions\": []}"

func TestNonUTF8RejectedForEveryTransport(t *testing.T) {
	for name, p := range map[string]string{
		"raw":      nonUTF8Doc,
		"base64":   base64.StdEncoding.EncodeToString([]byte(nonUTF8Doc)),
		"data url": "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(nonUTF8Doc)),
	} {
		_, err := Decode([]byte(p))
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrMalformed, name)
		assert.Contains(t, err.Error(), "not UTF-8", name)
	}
	_, err := DecodeDocument([]byte(nonUTF8Doc))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeTransportFailures(t *testing.T) {
	payloads := map[string]string{
		"empty":          "   ",
		"bad base64":     "!!!not-base64!!!",
		"data url plain": "data:application/json,{}",
		"not utf8":       base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd}),
		"base64 garbage": base64.StdEncoding.EncodeToString([]byte("hello")),
		"raw not utf8":   nonUTF8Doc,
	}
	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(p))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
