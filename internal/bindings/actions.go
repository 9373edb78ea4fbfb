package bindings

// ActionID uniquely identifies an editor action. The string form is what config files use.
type ActionID string

const (
	ActionSaveAndQuit ActionID = "save_and_quit"
	ActionNewline     ActionID = "newline"
	ActionDelete      ActionID = "delete"
	ActionLeft        ActionID = "left"
	ActionRight       ActionID = "right"
	ActionUp          ActionID = "up"
	ActionDown        ActionID = "down"
	ActionHome        ActionID = "home"
	ActionEnd         ActionID = "end"
	ActionComplete    ActionID = "complete"
	ActionRetract     ActionID = "retract"
	ActionSave        ActionID = "save"
	ActionJumpEnd     ActionID = "jump_end"
	ActionJumpStart   ActionID = "jump_start"
	ActionHelp        ActionID = "help"
	ActionQuit        ActionID = "quit"
	ActionInterrupt   ActionID = "interrupt"
	ActionUserTurn    ActionID = "user_turn"
	ActionEndTurn     ActionID = "end_turn"
)

type definition struct {
	id          ActionID
	defaults    []string
	description string
}

// definitions is in help-screen order.
var definitions = []definition{
	{ActionComplete, []string{"tab"}, "Ask the model to continue the text and insert its answer as a draft"},
	{ActionRetract, []string{"ctrl+a"}, "Take back characters of the pending draft"},
	{ActionUserTurn, []string{"ctrl+u"}, "Start an instruction for the model (chat-template models pin it in every prompt)"},
	{ActionEndTurn, []string{"ctrl+e"}, "End the instruction"},
	{ActionNewline, []string{"enter"}, "Split the line at the cursor"},
	{ActionDelete, []string{"backspace", "delete", "ctrl+h"}, "Delete the character before the cursor"},
	{ActionLeft, []string{"left", "ctrl+b"}, "Move left"},
	{ActionRight, []string{"right", "ctrl+f"}, "Move right"},
	{ActionUp, []string{"up", "ctrl+p"}, "Move up"},
	{ActionDown, []string{"down", "ctrl+n"}, "Move down"},
	{ActionHome, []string{"home"}, "Start of line"},
	{ActionEnd, []string{"end"}, "End of line"},
	{ActionJumpStart, []string{"ctrl+home", "ctrl+t"}, "Start of document"},
	{ActionJumpEnd, []string{"ctrl+end", "ctrl+g"}, "End of document"},
	{ActionSave, []string{"ctrl+s"}, "Save"},
	{ActionSaveAndQuit, []string{"esc"}, "Ask for a filename, save, and exit"},
	{ActionHelp, []string{"f1"}, "Show or hide this help"},
	{ActionQuit, []string{"ctrl+q"}, "Exit without saving"},
	{ActionInterrupt, []string{"ctrl+c"}, "Exit immediately without saving"},
}

var definitionLookup = func() map[ActionID]definition {
	m := make(map[ActionID]definition, len(definitions))
	for _, def := range definitions {
		m[def.id] = def
	}
	return m
}()

// KnownActions returns every action id in help-screen order.
func KnownActions() []ActionID {
	ids := make([]ActionID, 0, len(definitions))
	for _, def := range definitions {
		ids = append(ids, def.id)
	}
	return ids
}

// Description returns the help text of id, or "" for unknown ids.
func Description(id ActionID) string {
	return definitionLookup[id].description
}
