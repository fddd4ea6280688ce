package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/workflow"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTaskPermissionDenied   = errors.New("you don't have permission to modify this task")
	ErrNotProjectMember       = errors.New("you are not a member of this project")
	ErrTitleRequired          = errors.New("title is required")
	ErrInvalidTaskStatus      = errors.New("invalid task status")
	ErrInvalidTaskType        = errors.New("invalid task type")
	ErrAssigneeNotMember      = errors.New("assignee must be a member of the project")
	ErrNoTaskIDsProvided      = errors.New("at least one task ID is required")
	ErrTooManyTaskIDs         = fmt.Errorf("at most %d tasks can be deleted at once", constants.MaxBulkDeleteTasks)
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskAssignedData is the payload of the task-assigned event.
type TaskAssignedData struct {
	TaskID string `json:"taskId"`
	Origin string `json:"origin"`
}

// EventSender publishes workflow events.
type EventSender interface {
	Send(ctx context.Context, events ...workflow.Event) error
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	events      EventSender
	aiService   *AIService
}

// NewTaskService creates a new TaskService. aiService may be nil.
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, events EventSender, aiService *AIService) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		events:      events,
		aiService:   aiService,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ActorID     string
	ProjectID   string
	Title       string
	Description string
	Status      models.TaskStatus
	Type        models.TaskType
	Priority    models.Priority
	AssigneeID  *string
	DueDate     *time.Time
	// Origin is the client URL the assignment e-mail links back to.
	Origin string
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Type          *models.TaskType
	Priority      *models.Priority
	AssigneeID    *string
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
}

// CreateTask creates a task in a project led by the actor and starts the
// assignment notification workflow.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	project, err := s.findProject(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	if !authz.IsProjectLead(project, input.ActorID) {
		return nil, ErrTaskPermissionDenied
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if input.Type == "" {
		input.Type = models.TaskTypeTask
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if err := validateTaskFields(input.Status, input.Type, input.Priority); err != nil {
		return nil, err
	}

	assigneeID := normalizeID(input.AssigneeID)
	if assigneeID != nil && !authz.IsProjectMember(project, *assigneeID) {
		return nil, ErrAssigneeNotMember
	}

	task := &models.Task{
		ProjectID:   project.ID,
		Title:       title,
		Description: input.Description,
		Status:      input.Status,
		Type:        input.Type,
		Priority:    input.Priority,
		AssigneeID:  assigneeID,
		DueDate:     input.DueDate,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.emitAssigned(ctx, task.ID, input.Origin)

	return s.loadTask(ctx, task.ID)
}

// UpdateTask applies a partial update to a task of a project led by the actor
func (s *TaskService) UpdateTask(ctx context.Context, taskID, actorID string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, err := s.findProject(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}

	if !authz.IsProjectLead(project, actorID) {
		return nil, ErrTaskPermissionDenied
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Type != nil {
		task.Type = *input.Type
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if err := validateTaskFields(task.Status, task.Type, task.Priority); err != nil {
		return nil, err
	}

	if input.ClearAssignee {
		task.AssigneeID = nil
	} else if assigneeID := normalizeID(input.AssigneeID); assigneeID != nil {
		if !authz.IsProjectMember(project, *assigneeID) {
			return nil, ErrAssigneeNotMember
		}
		task.AssigneeID = assigneeID
	}

	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.loadTask(ctx, task.ID)
}

// DeleteTasks deletes a batch of tasks. The batch is rejected as a whole
// unless every task exists and belongs to a project led by the actor.
func (s *TaskService) DeleteTasks(ctx context.Context, actorID string, taskIDs []string) error {
	ids := make([]string, 0, len(taskIDs))
	for _, id := range taskIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	ids = uniqueStrings(ids)

	if len(ids) == 0 {
		return ErrNoTaskIDsProvided
	}
	if len(ids) > constants.MaxBulkDeleteTasks {
		return ErrTooManyTaskIDs
	}

	tasks, err := s.taskRepo.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to find tasks: %w", err)
	}
	if len(tasks) != len(ids) {
		return ErrTaskNotFound
	}

	projectIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		projectIDs = append(projectIDs, t.ProjectID)
	}
	projectIDs = uniqueStrings(projectIDs)

	projects, err := s.projectRepo.FindByIDs(ctx, projectIDs)
	if err != nil {
		return fmt.Errorf("failed to find projects: %w", err)
	}
	if len(projects) != len(projectIDs) {
		return ErrProjectNotFound
	}
	for i := range projects {
		if !authz.IsProjectLead(&projects[i], actorID) {
			return ErrTaskPermissionDenied
		}
	}

	if err := s.taskRepo.DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	return nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	ActorID   string
	ProjectID string
	Text      string
}

// GenerateTasks uses AI to suggest tasks for a project. Nothing is stored.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	project, err := s.findProject(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if !authz.IsProjectMember(project, input.ActorID) && !authz.IsProjectLead(project, input.ActorID) {
		return nil, ErrNotProjectMember
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, project.Name, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}
		if !aiTask.Type.Valid() {
			aiTask.Type = models.TaskTypeTask
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.PriorityMedium
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// emitAssigned starts the assignment workflow. The task is already stored, so
// a failure is logged instead of failing the request.
func (s *TaskService) emitAssigned(ctx context.Context, taskID, origin string) {
	if s.events == nil {
		return
	}

	ev, err := workflow.NewEvent(constants.EventTaskAssigned, "task-assigned-"+taskID, TaskAssignedData{
		TaskID: taskID,
		Origin: origin,
	})
	if err == nil {
		err = s.events.Send(ctx, ev)
	}
	if err != nil {
		log.Error().Err(err).Str("task_id", taskID).Msg("Failed to emit task assigned event")
	}
}

func (s *TaskService) findProject(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func (s *TaskService) loadTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id, "Assignee")
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}

func validateTaskFields(status models.TaskStatus, taskType models.TaskType, priority models.Priority) error {
	if !status.Valid() {
		return ErrInvalidTaskStatus
	}
	if !taskType.Valid() {
		return ErrInvalidTaskType
	}
	if !priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// normalizeID treats a blank id like a missing one.
func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
