package bootstrap

import "fmt"

// State es el ciclo de vida del aprovisionamiento de credenciales de una instancia.
//
//	NotStarted -> (KeysExtracted)? -> (ScriptDeployed)? -> TokensGenerated
//	                cualquier paso -> Failed
type State int

const (
	NotStarted State = iota
	KeysExtracted
	ScriptDeployed
	TokensGenerated
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case KeysExtracted:
		return "KeysExtracted"
	case ScriptDeployed:
		return "ScriptDeployed"
	case TokensGenerated:
		return "TokensGenerated"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reporta si el estado ya no cambia.
func (s State) Terminal() bool {
	return s == TokensGenerated || s == Failed
}
