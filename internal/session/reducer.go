package session

import "batchbook/internal/domain"

// State es la copia autoritativa del estado de autenticacion del cliente.
// Toda la UI deriva de aca; solo el reducer la muta.
type State struct {
	User            *domain.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Err             string
}

type ActionType string

const (
	ActionAuthStart   ActionType = "AUTH_START"
	ActionAuthSuccess ActionType = "AUTH_SUCCESS"
	ActionAuthError   ActionType = "AUTH_ERROR"
	ActionAuthLogout  ActionType = "AUTH_LOGOUT"
	ActionClearError  ActionType = "CLEAR_ERROR"
)

// Action es la union etiquetada de transiciones; User/Token acompañan a
// AUTH_SUCCESS y Message a AUTH_ERROR.
type Action struct {
	Type    ActionType
	User    *domain.User
	Token   string
	Message string
}

// Reduce es la funcion pura de transicion sobre el estado de sesion.
// Acciones desconocidas devuelven el estado sin cambios.
func Reduce(state State, action Action) State {
	switch action.Type {
	case ActionAuthStart:
		state.IsLoading = true
		state.Err = ""
		return state
	case ActionAuthSuccess:
		return State{
			User:            action.User,
			Token:           action.Token,
			IsAuthenticated: true,
			IsLoading:       false,
		}
	case ActionAuthError:
		return State{
			IsLoading: false,
			Err:       action.Message,
		}
	case ActionAuthLogout:
		return State{}
	case ActionClearError:
		state.Err = ""
		return state
	default:
		return state
	}
}
