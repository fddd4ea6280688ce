// Package jobs holds the workflow functions run by the workflow engine.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/mailer"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/workflow"
	"gorm.io/gorm"
)

const (
	FunctionSendTaskAssignmentEmail = "send-task-assignment-email"

	stepSendAssignmentEmail = "send-assignment-email"
	stepWaitUntilDueDate    = "wait-until-due-date"
	stepCheckTaskCompleted  = "check-task-completed"
)

// TaskNotifier e-mails the assignee of a new task and reminds them on the due
// date when the task is still not done.
type TaskNotifier struct {
	tasks     repository.TaskRepository
	mail      mailer.Mailer
	clientURL string
	loc       *time.Location
	metrics   *metrics.Workflow
}

// NewTaskNotifier creates a TaskNotifier. loc decides which calendar day
// "today" is.
func NewTaskNotifier(tasks repository.TaskRepository, mail mailer.Mailer, clientURL string, loc *time.Location, m *metrics.Workflow) *TaskNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskNotifier{
		tasks:     tasks,
		mail:      mail,
		clientURL: clientURL,
		loc:       loc,
		metrics:   m,
	}
}

// Function is the workflow definition triggered by the task-assigned event.
func (n *TaskNotifier) Function() workflow.Function {
	return workflow.Function{
		ID:      FunctionSendTaskAssignmentEmail,
		Trigger: constants.EventTaskAssigned,
		Handler: n.handle,
	}
}

type assignmentResult struct {
	Sent    bool       `json:"sent"`
	DueDate *time.Time `json:"due_date"`
}

func (n *TaskNotifier) handle(ctx context.Context, ev workflow.Event, step *workflow.Step) error {
	var data services.TaskAssignedData
	if err := ev.Decode(&data); err != nil {
		return err
	}
	if data.TaskID == "" {
		return workflow.NonRetriable(errors.New("task assigned event without taskId"))
	}

	link := data.Origin
	if link == "" {
		link = n.clientURL
	}

	assigned, err := workflow.Run(ctx, step, stepSendAssignmentEmail, func(ctx context.Context) (assignmentResult, error) {
		task, err := n.loadTask(ctx, data.TaskID)
		if err != nil || task == nil || !hasAssigneeEmail(task) {
			return assignmentResult{}, err
		}

		msg, err := mailer.AssignedEmail(task.Assignee.Email, n.emailData(task, link))
		if err != nil {
			return assignmentResult{}, workflow.NonRetriable(err)
		}
		err = n.mail.Send(ctx, msg)
		n.metrics.EmailSent("assigned", err)
		if err != nil {
			return assignmentResult{}, err
		}
		return assignmentResult{Sent: true, DueDate: task.DueDate}, nil
	})
	if err != nil {
		return err
	}

	if !assigned.Sent || assigned.DueDate == nil {
		return nil
	}

	if !n.sameDay(*assigned.DueDate, step.Now()) {
		if err := step.SleepUntil(ctx, stepWaitUntilDueDate, *assigned.DueDate); err != nil {
			return err
		}
	}

	_, err = workflow.Run(ctx, step, stepCheckTaskCompleted, func(ctx context.Context) (bool, error) {
		task, err := n.loadTask(ctx, data.TaskID)
		if err != nil || task == nil || task.IsCompleted() || !hasAssigneeEmail(task) {
			return false, err
		}

		msg, err := mailer.ReminderEmail(task.Assignee.Email, n.emailData(task, link))
		if err != nil {
			return false, workflow.NonRetriable(err)
		}
		err = n.mail.Send(ctx, msg)
		n.metrics.EmailSent("reminder", err)
		if err != nil {
			return false, err
		}
		return true, nil
	})
	return err
}

// loadTask returns nil without error when the task no longer exists.
func (n *TaskNotifier) loadTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := n.tasks.FindByID(ctx, id, "Assignee", "Project")
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", id, err)
	}
	return task, nil
}

func (n *TaskNotifier) emailData(task *models.Task, link string) mailer.TaskEmail {
	data := mailer.TaskEmail{
		AssigneeName: task.Assignee.Name,
		TaskTitle:    task.Title,
		Description:  task.Description,
		DueDate:      task.DueDate,
		Link:         link,
	}
	if task.Project != nil {
		data.ProjectName = task.Project.Name
	}
	return data
}

func (n *TaskNotifier) sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.In(n.loc).Date()
	y2, m2, d2 := b.In(n.loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func hasAssigneeEmail(task *models.Task) bool {
	return task.Assignee != nil && task.Assignee.Email != ""
}
