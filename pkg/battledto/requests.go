package battledto

type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type MoveResponse struct {
	Outcome string `json:"outcome"`
	State   *State `json:"state"`
}

type PromoteRequest struct {
	Kind string `json:"kind"`
}

type UndoResponse struct {
	Undone bool   `json:"undone"`
	State  *State `json:"state"`
}

type LegalMovesResponse struct {
	Square string   `json:"square"`
	Moves  []string `json:"moves"`
}

type ResultsResponse struct {
	Results []BattleResult `json:"results"`
}
