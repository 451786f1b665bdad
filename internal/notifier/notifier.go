// Package notifier delivers best-effort chat messages about task lifecycle events.
package notifier

import (
	"context"
	"fmt"
)

// Notifier sends messages to department channels and to the general channel.
// Implementations never return delivery failures to the caller.
type Notifier interface {
	NotifyDepartment(ctx context.Context, department, text string)
	NotifyGeneral(ctx context.Context, text string)
}

// Nop discards every message.
type Nop struct{}

func (Nop) NotifyDepartment(context.Context, string, string) {}
func (Nop) NotifyGeneral(context.Context, string)            {}

// NewTaskMessage announces a task created for a department.
func NewTaskMessage(department, title, description string) string {
	return fmt.Sprintf("Новая задача для отдела *%s*:\n%s\n%s", department, title, description)
}

// CrossDepartmentMessage announces that a department received a task from another one.
func CrossDepartmentMessage(fromDepartment, title string) string {
	return fmt.Sprintf("*Отдел получил задачу от другого отдела*\nОтдел-инициатор: *%s*\nЗадача: *%s*", fromDepartment, title)
}

// TaskCompletedMessage announces a completed task on the general channel.
func TaskCompletedMessage(username, department, title string) string {
	return fmt.Sprintf("*Задача выполнена*\nПользователь: *%s*\nОтдел: *%s*\nЗадача: *%s*\n", username, department, title)
}

// NotifyCrossDepartment tells toDepartment it received a task from fromDepartment.
// Nothing is sent when either side is unknown or both are the same department.
func NotifyCrossDepartment(ctx context.Context, n Notifier, fromDepartment, toDepartment, title string) {
	if fromDepartment == "" || toDepartment == "" || fromDepartment == toDepartment {
		return
	}
	n.NotifyDepartment(ctx, toDepartment, CrossDepartmentMessage(fromDepartment, title))
}
