// Package domain holds the CMS records and render-time values shared by the
// sponsored-articles packages.
package domain

import "time"

// ArticleContext is the CMS context string for article custom fields.
const ArticleContext = "com_content.article"

// Article is the subset of a CMS content row the service reads.
type Article struct {
	ID    int64  `db:"id"    json:"id"`
	Alias string `db:"alias" json:"alias"`
	// URLs is the raw links JSON; only read by the link_c lookup.
	URLs *string `db:"urls" json:"-"`
}

// FieldGroup is a row of #__fields_groups.
type FieldGroup struct {
	ID          int64     `db:"id"`
	Context     string    `db:"context"`
	Title       string    `db:"title"`
	Note        string    `db:"note"`
	Description string    `db:"description"`
	State       int       `db:"state"`
	Ordering    int       `db:"ordering"`
	Params      string    `db:"params"`
	Language    string    `db:"language"`
	Access      int       `db:"access"`
	Created     time.Time `db:"created"`
	CreatedBy   int64     `db:"created_by"`
	Modified    time.Time `db:"modified"`
	ModifiedBy  int64     `db:"modified_by"`
}

// Field is a row of #__fields.
type Field struct {
	ID               int64     `db:"id"`
	Context          string    `db:"context"`
	GroupID          int64     `db:"group_id"`
	Title            string    `db:"title"`
	Name             string    `db:"name"`
	Label            string    `db:"label"`
	DefaultValue     string    `db:"default_value"`
	Type             string    `db:"type"`
	Note             string    `db:"note"`
	Description      string    `db:"description"`
	State            int       `db:"state"`
	Required         int       `db:"required"`
	OnlyUseInSubform int       `db:"only_use_in_subform"`
	Ordering         int       `db:"ordering"`
	Params           string    `db:"params"`
	FieldParams      string    `db:"fieldparams"`
	Language         string    `db:"language"`
	Access           int       `db:"access"`
	CreatedTime      time.Time `db:"created_time"`
	CreatedBy        int64     `db:"created_user_id"`
	ModifiedTime     time.Time `db:"modified_time"`
	ModifiedBy       int64     `db:"modified_by"`
}
