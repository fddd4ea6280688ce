package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// TaskEmail carries what the task notifications show.
type TaskEmail struct {
	AssigneeName string
	TaskTitle    string
	Description  string
	ProjectName  string
	DueDate      *time.Time
	Link         string
}

const taskLayout = `<div style="max-width: 600px;">
  <h2>Hi {{.AssigneeName}},</h2>
  <p style="font-size: 16px;">{{.Intro}}</p>
  <p style="font-size: 18px; font-weight: bold; color: #007bff; margin: 8px 0;">{{.TaskTitle}}</p>
  <div style="border: 1px solid #ddd; padding: 12px 16px; border-radius: 6px; margin-bottom: 30px;">
    <p style="margin: 6px 0;"><strong>Description:</strong> {{.Description}}</p>
    <p style="margin: 6px 0;"><strong>Due Date:</strong> {{.Due}}</p>
  </div>
  <a href="{{.Link}}" style="background-color: #007bff; padding: 12px 24px; border-radius: 5px; color: #fff; font-weight: 600; font-size: 16px; text-decoration: none;">View Task</a>
  <p style="margin-top: 20px; font-size: 14px; color: #6c757d;">Please make sure to review and complete it before the due date.</p>
</div>`

var taskTemplate = template.Must(template.New("task").Parse(taskLayout))

type taskView struct {
	TaskEmail
	Intro string
	Due   string
}

// AssignedEmail is sent as soon as a task is created for an assignee.
func AssignedEmail(to string, data TaskEmail) (Message, error) {
	return renderTask(to,
		fmt.Sprintf("New Task Assigned: %s", data.ProjectName),
		fmt.Sprintf("You have been assigned a new task in %s:", data.ProjectName),
		data)
}

// ReminderEmail is sent on the due date of a task that is not done yet.
func ReminderEmail(to string, data TaskEmail) (Message, error) {
	return renderTask(to,
		fmt.Sprintf("Reminder: Task %q is due today", data.TaskTitle),
		fmt.Sprintf("You have a task due in %s:", data.ProjectName),
		data)
}

func renderTask(to, subject, intro string, data TaskEmail) (Message, error) {
	due := "No due date"
	if data.DueDate != nil {
		due = data.DueDate.Format("January 2, 2006")
	}

	var buf bytes.Buffer
	if err := taskTemplate.Execute(&buf, taskView{TaskEmail: data, Intro: intro, Due: due}); err != nil {
		return Message{}, fmt.Errorf("render task email: %w", err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}
