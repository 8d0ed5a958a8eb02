package builder

import (
	"fmt"

	"github.com/meenmo/ratecurve/curve"
	"github.com/meenmo/ratecurve/utils"
)

// NodeReport describes one bootstrapped node and the helper that placed it.
type NodeReport struct {
	Helper   string  `json:"helper"`
	Date     string  `json:"date"`
	Time     float64 `json:"time"`
	Value    float64 `json:"value"`
	Discount float64 `json:"discount"`
	ZeroRate float64 `json:"zero_rate"`
	Residual float64 `json:"residual"`
}

// CurveReport is a printable summary of a bootstrapped curve.
type CurveReport struct {
	Name           string       `json:"name"`
	ReferenceDate  string       `json:"reference_date"`
	Representation string       `json:"representation"`
	Evaluations    int          `json:"evaluations"`
	ColdRetries    int          `json:"cold_retries"`
	JointResolves  int          `json:"joint_resolves"`
	GlobalPasses   int          `json:"global_passes"`
	DurationMillis float64      `json:"duration_ms"`
	Nodes          []NodeReport `json:"nodes"`
}

// Report bootstraps the named curve if needed and summarizes it.
func (m *Market) Report(name string) (*CurveReport, error) {
	c, ok := m.curves[name]
	if !ok {
		return nil, fmt.Errorf("builder: unknown curve '%s'", name)
	}
	nodes, err := c.Nodes()
	if err != nil {
		return nil, err
	}
	residuals, err := c.Residuals()
	if err != nil {
		return nil, err
	}
	ids := m.ids[name]

	st := c.Stats()
	r := &CurveReport{
		Name:           name,
		ReferenceDate:  c.ReferenceDate().Format(utils.DateLayout),
		Representation: c.Representation().String(),
		Evaluations:    st.Evaluations,
		ColdRetries:    st.ColdRetries,
		JointResolves:  st.JointResolves,
		GlobalPasses:   st.GlobalPasses,
		DurationMillis: float64(st.Duration.Microseconds()) / 1000,
		Nodes:          make([]NodeReport, 0, len(nodes)-1),
	}
	// Node 0 is the reference date and has no helper.
	for i := 1; i < len(nodes); i++ {
		n := nodes[i]
		d, err := c.Discount(n.Time)
		if err != nil {
			return nil, err
		}
		z, err := curve.ZeroRate(c, n.Time)
		if err != nil {
			return nil, err
		}
		r.Nodes = append(r.Nodes, NodeReport{
			Helper:   ids[i-1],
			Date:     n.Date.Format(utils.DateLayout),
			Time:     n.Time,
			Value:    n.Value,
			Discount: d,
			ZeroRate: z,
			Residual: residuals[i-1],
		})
	}
	return r, nil
}
