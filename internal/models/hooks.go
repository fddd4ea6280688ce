package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (u *User) BeforeSave(*gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}

func (w *Workspace) BeforeCreate(*gorm.DB) error       { newID(&w.ID); return nil }
func (m *WorkspaceMember) BeforeCreate(*gorm.DB) error { newID(&m.ID); return nil }
func (p *Project) BeforeCreate(*gorm.DB) error         { newID(&p.ID); return nil }
func (m *ProjectMember) BeforeCreate(*gorm.DB) error   { newID(&m.ID); return nil }
func (t *Task) BeforeCreate(*gorm.DB) error            { newID(&t.ID); return nil }
func (c *Comment) BeforeCreate(*gorm.DB) error         { newID(&c.ID); return nil }
func (r *WorkflowRun) BeforeCreate(*gorm.DB) error     { newID(&r.ID); return nil }
