package handlers

import "fmt"

// Action is the closed set of whiteboard actions a client can submit.
type Action string

const (
	ActionCreateWb    Action = "createWb"
	ActionRemoveWb    Action = "removeWb"
	ActionActivateWb  Action = "activateWb"
	ActionRenameWb    Action = "renameWb"
	ActionSetSlide    Action = "setSlide"
	ActionSetSize     Action = "setSize"
	ActionClearAll    Action = "clearAll"
	ActionCreateObj   Action = "createObj"
	ActionModifyObj   Action = "modifyObj"
	ActionDeleteObj   Action = "deleteObj"
	ActionClearSlide  Action = "clearSlide"
	ActionSave        Action = "save"
	ActionUndo        Action = "undo"
	ActionVideoStatus Action = "videoStatus"
	ActionDownload    Action = "download"
	ActionLoadVideos  Action = "loadVideos"
)

// Outbound-only actions.
const (
	ActionLoad       Action = "load"
	ActionInitVideos Action = "initVideos"
)

var actions = map[Action]struct{}{
	ActionCreateWb: {}, ActionRemoveWb: {}, ActionActivateWb: {}, ActionRenameWb: {},
	ActionSetSlide: {}, ActionSetSize: {}, ActionClearAll: {},
	ActionCreateObj: {}, ActionModifyObj: {}, ActionDeleteObj: {}, ActionClearSlide: {},
	ActionSave: {}, ActionUndo: {}, ActionVideoStatus: {},
	ActionDownload: {}, ActionLoadVideos: {},
}

// ParseAction validates s against the closed action set.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := actions[a]; !ok {
		return "", fmt.Errorf("unknown whiteboard action: %q", s)
	}
	return a, nil
}

func (a Action) String() string { return string(a) }
