package criteria

import (
	"github.com/viant/rtk/model/pcb"
	"github.com/viant/rtk/service/dao"
)

// StateParameter is the parameter name matched by FilterByState
const StateParameter = "State"

// FilterByState returns true when state satisfies every State parameter.
// Parameters with other names are ignored.
func FilterByState(state pcb.State, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != StateParameter {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if string(state) != actual {
				return false
			}
		case []string:
			matched := false
			for _, candidate := range actual {
				if string(state) == candidate {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}
	return true
}

// StateOf builds a State parameter from the supplied states
func StateOf(states ...pcb.State) *dao.Parameter {
	values := make([]string, len(states))
	for i, state := range states {
		values[i] = string(state)
	}
	return dao.NewParameter(StateParameter, values...)
}
