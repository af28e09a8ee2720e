package engine

// GameState is a state whose stage is built on Enter and torn down on Exit
type GameState struct {
	name   string
	setup  func(*Stage) error
	update func(*Stage, int)
	stage  *Stage
}

// NewGameState runs setup on a fresh stage every time the state is entered
func NewGameState(name string, setup func(*Stage) error) *GameState {
	return &GameState{name: name, setup: setup}
}

// OnUpdate registers game logic that runs before the stage simulates a frame
func (g *GameState) OnUpdate(fn func(stage *Stage, elapsedMS int)) *GameState {
	g.update = fn
	return g
}

func (g *GameState) Name() string { return g.name }

// Stage returns the live stage, nil outside Enter..Exit
func (g *GameState) Stage() *Stage { return g.stage }

func (g *GameState) Enter(e *Engine) {
	g.stage = newStage(g.name, e)
	if g.setup == nil {
		return
	}
	if err := g.setup(g.stage); err != nil {
		e.logger.Printf("state %s: setup: %v", g.name, err)
	}
}

func (g *GameState) Execute(e *Engine) {
	if g.stage == nil {
		return
	}
	if g.update != nil {
		g.update(g.stage, e.elapsedMS)
	}
	g.stage.Update(e.elapsedMS)
}

func (g *GameState) Exit(*Engine) {
	if g.stage != nil {
		g.stage.Close()
		g.stage = nil
	}
}

func (g *GameState) Suspend(*Engine) {
	if g.stage != nil {
		g.stage.Suspend()
	}
}

func (g *GameState) Resume(*Engine) {
	if g.stage != nil {
		g.stage.Resume()
	}
}
