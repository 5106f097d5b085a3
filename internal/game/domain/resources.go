package domain

// Resources 四种资源量。引擎内部用 float64 连续计量，落库/出口时再取整。
type Resources struct {
	Wood float64 `json:"wood"`
	Clay float64 `json:"clay"`
	Iron float64 `json:"iron"`
	Crop float64 `json:"crop"`
}

func (r Resources) Add(o Resources) Resources {
	return Resources{
		Wood: r.Wood + o.Wood,
		Clay: r.Clay + o.Clay,
		Iron: r.Iron + o.Iron,
		Crop: r.Crop + o.Crop,
	}
}

func (r Resources) Sub(o Resources) Resources {
	return Resources{
		Wood: r.Wood - o.Wood,
		Clay: r.Clay - o.Clay,
		Iron: r.Iron - o.Iron,
		Crop: r.Crop - o.Crop,
	}
}

func (r Resources) Total() float64 {
	return r.Wood + r.Clay + r.Iron + r.Crop
}

func (r Resources) IsZero() bool {
	return r.Wood == 0 && r.Clay == 0 && r.Iron == 0 && r.Crop == 0
}
