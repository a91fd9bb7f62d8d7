package types

import (
	"time"
)

// SimulationPosition is one per-currency running balance for a simulation run.
type SimulationPosition struct {
	SimulationID string   `yaml:"simulation_id" json:"simulation_id"`
	Exchange     Exchange `yaml:"exchange" json:"exchange"`
	Currency     Currency `yaml:"currency" json:"currency"`
	StartBalance float64  `yaml:"start_balance" json:"start_balance"`
	Balance      float64  `yaml:"balance" json:"balance"`
	// Fees accumulates fees paid in this currency.
	Fees float64 `yaml:"fees" json:"fees"`
}

// Diff returns the end-minus-start balance change.
func (p SimulationPosition) Diff() float64 {
	return p.Balance - p.StartBalance
}

// DeploymentSpec is the requested strategy deployment: which plugin to run,
// on which timeframe, with which parameters.
type DeploymentSpec struct {
	Plugin    string            `yaml:"plugin" json:"plugin" validate:"required"`
	Timeframe Timeframe         `yaml:"timeframe" json:"timeframe" validate:"required"`
	Params    map[string]string `yaml:"params" json:"params"`
}

// Deployment is an activated strategy deployment with its resolved subscriptions.
type Deployment struct {
	Spec DeploymentSpec `yaml:"spec" json:"spec"`
	// ID is assigned by the strategy collaborator on activation.
	ID string `yaml:"id" json:"id"`
	// Instruments are the instruments the strategy resolved for this run;
	// combined with Spec.Timeframe they form the tick subscriptions.
	Instruments []Instrument `yaml:"instruments" json:"instruments"`
	// Indicators are the indicator requirements the strategy declared.
	Indicators []string `yaml:"indicators" json:"indicators"`
}

// Subscriptions intersects the resolved instruments with the requested timeframe.
func (d Deployment) Subscriptions() []Subscription {
	subs := make([]Subscription, 0, len(d.Instruments))
	for _, instrument := range d.Instruments {
		subs = append(subs, Subscription{
			Instrument: instrument,
			Timeframe:  d.Spec.Timeframe,
		})
	}

	return subs
}

// Simulation is the aggregate root of one run. It is mutated by the
// orchestrator while the run progresses and becomes immutable once the
// report is built.
type Simulation struct {
	ID        string    `yaml:"id" json:"id"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	// Start and End bound the replayed window as [Start, End).
	Start          time.Time            `yaml:"start" json:"start"`
	End            time.Time            `yaml:"end" json:"end"`
	Positions      []SimulationPosition `yaml:"positions" json:"positions"`
	Deployments    []Deployment         `yaml:"deployments" json:"deployments"`
	ProcessedTicks int64                `yaml:"processed_ticks" json:"processed_ticks"`
	EmittedActions int64                `yaml:"emitted_actions" json:"emitted_actions"`
	// ActiveOrders are the not yet terminal orders.
	ActiveOrders []*Order `yaml:"active_orders" json:"active_orders"`
}
