package model

// Link is a cross-collection reference from a schedule item to a
// task-master item via metadata.task_master_id. It is derived from item
// metadata at read time; there is no link table.
type Link struct {
	ScheduleID   string `json:"schedule_id"`
	TaskMasterID string `json:"task_master_id"`

	// SubAction is set when the reference lives on a sub-action rather
	// than on the item itself.
	SubAction string `json:"sub_action,omitempty"`

	// ScheduleTitle and TaskMasterTitle are populated when the other side
	// could be loaded. A dangling link leaves the missing title empty.
	ScheduleTitle   string `json:"schedule_title,omitempty"`
	TaskMasterTitle string `json:"task_master_title,omitempty"`
	Dangling        bool   `json:"dangling,omitempty"`
}
