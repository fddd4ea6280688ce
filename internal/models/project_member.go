package models

type ProjectMember struct {
	ID        string `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID    string `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_project_member" json:"userId"`
	ProjectID string `gorm:"column:project_id;type:varchar(36);not null;uniqueIndex:idx_project_member" json:"projectId"`

	// Relations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
