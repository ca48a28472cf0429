package decoder

// 该文件定义 Vista 导出 JSON 的输入结构，字段名与导出格式保持一致。
// 数值字段使用指针，以便区分“缺失”与“零值”。

// Document 是导出文件的顶层结构。
type Document struct {
	Paths   *[]PathRecord   `json:"paths" validate:"required,dive"`
	Actions *[]ActionRecord `json:"actions" validate:"required,dive"`
}

// PathRecord 描述一条规划路径。
type PathRecord struct {
	Name      *string        `json:"P_name" validate:"required"`
	Color     *ColorRecord   `json:"pathColor" validate:"required"`
	Waypoints *[]WaypointRec `json:"pathwaypoints" validate:"required,dive"`
}

// ColorRecord 的三个通道均为 0..1 的归一化值。
type ColorRecord struct {
	R *float64 `json:"r" validate:"required"`
	G *float64 `json:"g" validate:"required"`
	B *float64 `json:"b" validate:"required"`
}

// WaypointRec 中 z 对应绘图的纵轴。
type WaypointRec struct {
	X *float64 `json:"x" validate:"required"`
	Z *float64 `json:"z" validate:"required"`
}

// ActionRecord 描述沿某条路径行驶的一次轨迹及其可达集/不安全集。
type ActionRecord struct {
	Name       *string              `json:"myName" validate:"required"`
	PathIndex  *int                 `json:"pathIndex" validate:"required"`
	StartTime  *float64             `json:"starttime" validate:"required"`
	Speed      *float64             `json:"mySpeed" validate:"required"`
	ReachableX *[]ReachableInterval `json:"reachableSetsX" validate:"required,dive"`
	ReachableZ *[]Interval          `json:"reachableSetsZ" validate:"required,dive"`
	UnsafeX    []UnsafeInterval     `json:"unsafeSetsX"`
	UnsafeZ    []Interval           `json:"unsafeSetsZ"`
}

// ReachableInterval 是 X 轴上的可达区间，附带时间（秒）与旋转角（弧度）。
type ReachableInterval struct {
	Lo    *float64 `json:"lo" validate:"required"`
	Hi    *float64 `json:"hi" validate:"required"`
	Time  *float64 `json:"time" validate:"required"`
	Angle *float64 `json:"angle" validate:"required"`
}

// Interval 是单轴区间。不安全集中的空对象 {} 表示该条目缺失。
type Interval struct {
	Lo *float64 `json:"lo" validate:"required"`
	Hi *float64 `json:"hi" validate:"required"`
}

// UnsafeInterval 是 X 轴上的不安全区间。
type UnsafeInterval struct {
	Lo   *float64 `json:"lo"`
	Hi   *float64 `json:"hi"`
	Time *float64 `json:"time"`
}

func (iv Interval) present() bool { return iv.Lo != nil && iv.Hi != nil }

func (iv UnsafeInterval) present() bool { return iv.Lo != nil && iv.Hi != nil && iv.Time != nil }
