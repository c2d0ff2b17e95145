package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Kind discriminates the per-view item types that share the Item shape.
type Kind string

const (
	KindTask     Kind = "task"
	KindTicket   Kind = "ticket"
	KindCourse   Kind = "course"
	KindResource Kind = "resource"
	KindIdea     Kind = "idea"
	KindAudition Kind = "audition"
)

// IdeaStage is the maturity of an idea item.
type IdeaStage string

const (
	StageSpark      IdeaStage = "spark"
	StageSolidified IdeaStage = "solidified"
)

// TicketFields holds ledger-ticket specific metadata.
type TicketFields struct {
	TicketType string
	Priority   string
}

// EstimateFields holds effort/impact scoring.
type EstimateFields struct {
	Effort int
	Impact int
}

// CourseFields holds course progress metadata.
type CourseFields struct {
	Hours     float64
	HoursDone float64
}

// ResourceFields holds a resource link.
type ResourceFields struct {
	URL string
}

// IdeaFields holds the idea stage.
type IdeaFields struct {
	Stage IdeaStage
}

// AuditionFields holds voiceover-audition tracking data.
type AuditionFields struct {
	Client string
	Role   string
	Result string
}

// Metadata is the typed replacement for the free-form metadata blob.
// Common fields are shared by every kind; kind-specific sections are nil
// unless present. Keys this type does not know, or known keys whose value
// has an unexpected JSON type, are kept in Extra and written back
// unchanged on marshal.
type Metadata struct {
	Kind Kind

	// CompletedDates is the append-ordered completion ledger of
	// "YYYY-MM-DD @ HH:MM" entries.
	CompletedDates []string

	// Streak is the lifetime completion count (len(CompletedDates)).
	Streak int

	CompletedSubActions []string
	SubActions          []SubAction
	Tags                []string

	PreferredWeekday *int
	PreferredDayNum  *int
	ActiveDays       []int

	// TaskMasterID is the soft link from a schedule item to a task-master item.
	TaskMasterID string

	IsTemplate bool
	IsFavorite bool

	Ticket   *TicketFields
	Estimate *EstimateFields
	Course   *CourseFields
	Resource *ResourceFields
	Idea     *IdeaFields
	Audition *AuditionFields

	Extra map[string]json.RawMessage
}

// SubAction is a checklist-style sub-item. It may carry its own link to a
// task-master item.
type SubAction struct {
	ID           string   `json:"id,omitempty"`
	Text         string   `json:"text"`
	Tags         []string `json:"tags,omitempty"`
	TaskMasterID string   `json:"task_master_id,omitempty"`
}

// UnmarshalJSON accepts either an object or a bare string; older rows
// stored sub-actions as plain text.
func (s *SubAction) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*s = SubAction{Text: text}
		return nil
	}
	type plain SubAction
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("decoding sub-action: %w", err)
	}
	*s = SubAction(p)
	return nil
}

// Key returns the value recorded in completed_sub_actions for s.
func (s SubAction) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Text
}

// HasTag reports whether the metadata carries tag, case-insensitively.
func (m Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SubActionDone reports whether a sub-action is recorded as completed.
func (m Metadata) SubActionDone(s SubAction) bool {
	return slices.Contains(m.CompletedSubActions, s.Key()) ||
		slices.Contains(m.CompletedSubActions, s.Text)
}

// Clone deep-copies slices, sections and extra keys.
func (m Metadata) Clone() Metadata {
	out := m
	out.CompletedDates = slices.Clone(m.CompletedDates)
	out.CompletedSubActions = slices.Clone(m.CompletedSubActions)
	out.Tags = slices.Clone(m.Tags)
	out.ActiveDays = slices.Clone(m.ActiveDays)
	if m.SubActions != nil {
		out.SubActions = make([]SubAction, len(m.SubActions))
		for i, s := range m.SubActions {
			s.Tags = slices.Clone(s.Tags)
			out.SubActions[i] = s
		}
	}
	out.PreferredWeekday = clonePtr(m.PreferredWeekday)
	out.PreferredDayNum = clonePtr(m.PreferredDayNum)
	out.Ticket = clonePtr(m.Ticket)
	out.Estimate = clonePtr(m.Estimate)
	out.Course = clonePtr(m.Course)
	out.Resource = clonePtr(m.Resource)
	out.Idea = clonePtr(m.Idea)
	out.Audition = clonePtr(m.Audition)
	if m.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = slices.Clone(v)
		}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// decodeInto returns a decoder that only assigns on success, so a value of
// the wrong JSON type leaves the destination untouched.
func decodeInto[T any](dst *T) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

func decodeSection[S any, T any](section **S, set func(*S, T)) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if *section == nil {
			*section = new(S)
		}
		set(*section, v)
		return nil
	}
}

func (m *Metadata) decoders() map[string]func(json.RawMessage) error {
	return map[string]func(json.RawMessage) error{
		"kind":                  decodeInto(&m.Kind),
		"completed_dates":       decodeInto(&m.CompletedDates),
		"streak":                decodeInto(&m.Streak),
		"completed_sub_actions": decodeInto(&m.CompletedSubActions),
		"sub_actions":           decodeInto(&m.SubActions),
		"tags":                  decodeInto(&m.Tags),
		"preferred_weekday":     decodeInto(&m.PreferredWeekday),
		"preferred_day_num":     decodeInto(&m.PreferredDayNum),
		"active_days":           decodeInto(&m.ActiveDays),
		"task_master_id":        decodeInto(&m.TaskMasterID),
		"is_template":           decodeInto(&m.IsTemplate),
		"is_favorite":           decodeInto(&m.IsFavorite),
		"ticket_type": decodeSection(&m.Ticket, func(s *TicketFields, v string) { s.TicketType = v }),
		"priority":    decodeSection(&m.Ticket, func(s *TicketFields, v string) { s.Priority = v }),
		"effort":      decodeSection(&m.Estimate, func(s *EstimateFields, v int) { s.Effort = v }),
		"impact":      decodeSection(&m.Estimate, func(s *EstimateFields, v int) { s.Impact = v }),
		"hours":       decodeSection(&m.Course, func(s *CourseFields, v float64) { s.Hours = v }),
		"hours_done":  decodeSection(&m.Course, func(s *CourseFields, v float64) { s.HoursDone = v }),
		"url":         decodeSection(&m.Resource, func(s *ResourceFields, v string) { s.URL = v }),
		"stage":       decodeSection(&m.Idea, func(s *IdeaFields, v IdeaStage) { s.Stage = v }),
		"client":      decodeSection(&m.Audition, func(s *AuditionFields, v string) { s.Client = v }),
		"role":        decodeSection(&m.Audition, func(s *AuditionFields, v string) { s.Role = v }),
		"result":      decodeSection(&m.Audition, func(s *AuditionFields, v string) { s.Result = v }),
	}
}

// UnmarshalJSON decodes known keys into typed fields and keeps the rest.
func (m *Metadata) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decoding metadata: %w", err)
	}

	*m = Metadata{}
	decoders := m.decoders()
	for key, val := range raw {
		if dec, ok := decoders[key]; ok && dec(val) == nil {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]json.RawMessage)
		}
		m.Extra[key] = val
	}
	return nil
}

// MarshalJSON writes a flat object; typed fields win over Extra keys of
// the same name.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+12)
	for k, v := range m.Extra {
		out[k] = v
	}

	set := func(key string, v any, present bool) {
		if present {
			out[key] = v
		}
	}

	set("kind", m.Kind, m.Kind != "")
	set("completed_dates", m.CompletedDates, m.CompletedDates != nil)
	set("streak", m.Streak, m.Streak != 0 || m.CompletedDates != nil)
	set("completed_sub_actions", m.CompletedSubActions, m.CompletedSubActions != nil)
	set("sub_actions", m.SubActions, m.SubActions != nil)
	set("tags", m.Tags, m.Tags != nil)
	set("preferred_weekday", m.PreferredWeekday, m.PreferredWeekday != nil)
	set("preferred_day_num", m.PreferredDayNum, m.PreferredDayNum != nil)
	set("active_days", m.ActiveDays, m.ActiveDays != nil)
	set("task_master_id", m.TaskMasterID, m.TaskMasterID != "")
	set("is_template", m.IsTemplate, m.IsTemplate)
	set("is_favorite", m.IsFavorite, m.IsFavorite)

	if t := m.Ticket; t != nil {
		set("ticket_type", t.TicketType, t.TicketType != "")
		set("priority", t.Priority, t.Priority != "")
	}
	if e := m.Estimate; e != nil {
		out["effort"] = e.Effort
		out["impact"] = e.Impact
	}
	if c := m.Course; c != nil {
		out["hours"] = c.Hours
		out["hours_done"] = c.HoursDone
	}
	if r := m.Resource; r != nil {
		set("url", r.URL, r.URL != "")
	}
	if i := m.Idea; i != nil {
		set("stage", i.Stage, i.Stage != "")
	}
	if a := m.Audition; a != nil {
		set("client", a.Client, a.Client != "")
		set("role", a.Role, a.Role != "")
		set("result", a.Result, a.Result != "")
	}

	return json.Marshal(out)
}
