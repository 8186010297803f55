// Package provision creates the "Sponsored?" custom field and its group in
// the CMS field store.
package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
)

// Action is the extension lifecycle event that triggers provisioning.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUpdate    Action = "update"
	ActionUninstall Action = "uninstall"
)

// ParseAction validates s as an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionInstall, ActionUpdate, ActionUninstall:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

const (
	GroupTitle       = "Sponsored?"
	groupDescription = "Fields for marking articles as sponsored content."
	fieldTitle       = "Sponsored?"
	fieldType        = "radio"
	fieldDescription = "Mark this article as sponsored to highlight it in blog views."
	switcherLayout   = "joomla.form.field.radio.switcher"
	switcherClass    = "btn-group btn-group-yesno"
	allLanguages     = "*"
	publicAccess     = 1
	published        = 1
)

// ErrInvalidField is returned when a field definition fails its check.
var ErrInvalidField = errors.New("invalid field definition")

// Store is the field-definition persistence the provisioner needs.
type Store interface {
	FindGroupID(ctx context.Context, title, fieldContext string) (int64, bool, error)
	FindFieldID(ctx context.Context, name, fieldContext string) (int64, bool, error)
	CreateGroup(ctx context.Context, group *domain.FieldGroup) (int64, error)
	CreateField(ctx context.Context, field *domain.Field) (int64, error)
}

// Outcome reports what Ensure found or created.
type Outcome struct {
	GroupID      int64 `json:"group_id"`
	GroupCreated bool  `json:"group_created"`
	FieldID      int64 `json:"field_id"`
	FieldCreated bool  `json:"field_created"`
}

// Provisioner ensures the sponsor field exists.
type Provisioner struct {
	store     Store
	fieldName string
	userID    int64
	now       func() time.Time
	logger    infralogger.Logger
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithUserID records userID as creator of new rows. Defaults to 0.
func WithUserID(userID int64) Option {
	return func(p *Provisioner) { p.userID = userID }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Provisioner) { p.now = now }
}

// New creates a Provisioner for the field called fieldName.
func New(store Store, fieldName string, log infralogger.Logger, opts ...Option) *Provisioner {
	p := &Provisioner{
		store:     store,
		fieldName: fieldName,
		now:       time.Now,
		logger:    log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ensure finds or creates the group, then finds or creates the field bound
// to it. Existing rows are never modified.
func (p *Provisioner) Ensure(ctx context.Context) (Outcome, error) {
	var out Outcome

	groupID, found, err := p.store.FindGroupID(ctx, GroupTitle, domain.ArticleContext)
	if err != nil {
		return out, fmt.Errorf("find field group: %w", err)
	}
	if !found {
		groupID, err = p.store.CreateGroup(ctx, p.newGroup())
		if err != nil {
			return out, fmt.Errorf("create field group: %w", err)
		}
		out.GroupCreated = true
	}
	out.GroupID = groupID

	fieldID, found, err := p.store.FindFieldID(ctx, p.fieldName, domain.ArticleContext)
	if err != nil {
		return out, fmt.Errorf("find field: %w", err)
	}
	if !found {
		field, buildErr := p.newField(groupID)
		if buildErr != nil {
			return out, buildErr
		}
		if err = Check(field); err != nil {
			return out, err
		}
		fieldID, err = p.store.CreateField(ctx, field)
		if err != nil {
			return out, fmt.Errorf("create field: %w", err)
		}
		out.FieldCreated = true
	}
	out.FieldID = fieldID

	return out, nil
}

// Run provisions for install and update; uninstall leaves the field in
// place. Failures are logged as warnings and never returned, so a broken
// field store cannot block the lifecycle step that triggered it.
func (p *Provisioner) Run(ctx context.Context, action Action) Outcome {
	if action != ActionInstall && action != ActionUpdate {
		p.logger.Debug("Provisioning skipped", infralogger.String("action", string(action)))
		return Outcome{}
	}

	out, err := p.Ensure(ctx)
	if err != nil {
		p.logger.Warn("Failed to create custom field",
			infralogger.String("action", string(action)),
			infralogger.String("field", p.fieldName),
			infralogger.Error(err),
		)
		return out
	}

	p.logger.Info("Custom field provisioned",
		infralogger.String("action", string(action)),
		infralogger.Any("group_id", out.GroupID),
		infralogger.Bool("group_created", out.GroupCreated),
		infralogger.Any("field_id", out.FieldID),
		infralogger.Bool("field_created", out.FieldCreated),
	)
	return out
}

// Check validates a field definition before it is stored.
func Check(field *domain.Field) error {
	switch {
	case field.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidField)
	case field.Type == "":
		return fmt.Errorf("%w: type is required", ErrInvalidField)
	case field.Context == "":
		return fmt.Errorf("%w: context is required", ErrInvalidField)
	case field.GroupID <= 0:
		return fmt.Errorf("%w: group id is required", ErrInvalidField)
	case field.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidField)
	}
	return nil
}

func (p *Provisioner) newGroup() *domain.FieldGroup {
	now := p.now().UTC()
	return &domain.FieldGroup{
		Context:     domain.ArticleContext,
		Title:       GroupTitle,
		Description: groupDescription,
		State:       published,
		Params:      "{}",
		Language:    allLanguages,
		Access:      publicAccess,
		Created:     now,
		CreatedBy:   p.userID,
		Modified:    now,
		ModifiedBy:  p.userID,
	}
}

type radioOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type fieldParams struct {
	Options map[string]radioOption `json:"options"`
	Class   string                 `json:"class"`
	Layout  string                 `json:"layout"`
}

// displayParams hide the label and keep the value out of automatic output.
type displayParams struct {
	Hint             string `json:"hint"`
	RenderClass      string `json:"render_class"`
	Class            string `json:"class"`
	ShowLabel        string `json:"showlabel"`
	LabelRenderClass string `json:"label_render_class"`
	ShowOn           string `json:"show_on"`
	Display          string `json:"display"`
	DisplayReadonly  string `json:"display_readonly"`
}

func (p *Provisioner) newField(groupID int64) (*domain.Field, error) {
	fp, err := json.Marshal(fieldParams{
		Options: map[string]radioOption{
			"options0": {Name: "No", Value: "0"},
			"options1": {Name: "Yes", Value: "1"},
		},
		Class:  switcherClass,
		Layout: switcherLayout,
	})
	if err != nil {
		return nil, fmt.Errorf("encode field params: %w", err)
	}

	dp, err := json.Marshal(displayParams{
		ShowLabel:       "0",
		Display:         "0",
		DisplayReadonly: "2",
	})
	if err != nil {
		return nil, fmt.Errorf("encode display params: %w", err)
	}

	now := p.now().UTC()
	return &domain.Field{
		Context:      domain.ArticleContext,
		GroupID:      groupID,
		Title:        fieldTitle,
		Name:         p.fieldName,
		Label:        fieldTitle,
		DefaultValue: "0",
		Type:         fieldType,
		Description:  fieldDescription,
		State:        published,
		Params:       string(dp),
		FieldParams:  string(fp),
		Language:     allLanguages,
		Access:       publicAccess,
		CreatedTime:  now,
		CreatedBy:    p.userID,
		ModifiedTime: now,
		ModifiedBy:   p.userID,
	}, nil
}
