package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSubtaskPositions(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)

	first, err := f.engine.CreateSubtask(task.ID, SubtaskInput{Title: "Dig the bed"}, f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)

	second, err := f.engine.CreateSubtask(task.ID, SubtaskInput{Title: "Plant the seeds"}, f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position, "new subtasks append after the current maximum")

	five := 5
	pinned, err := f.engine.CreateSubtask(task.ID, SubtaskInput{Title: "Label the rows", Position: &five}, f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, 5, pinned.Position)

	parent := f.reloadTask(t, task.ID)
	assert.Equal(t, 3, parent.SubtaskCount)
	assert.Equal(t, 0, parent.CompletedSubtaskCount)

	_, err = f.engine.CreateSubtask(task.ID, SubtaskInput{Title: "   "}, f.adminActor())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.engine.CreateSubtask(task.ID, SubtaskInput{Title: "Nope"}, Actor{UserID: f.alice.ID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateSubtaskStatus(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)
	sub, err := f.engine.CreateSubtask(task.ID, SubtaskInput{Title: "Water daily"}, f.adminActor())
	require.NoError(t, err)

	// any active member may move a subtask
	done, err := f.engine.UpdateSubtaskStatus(sub.ID, "completed", Actor{UserID: f.alice.ID})
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	require.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.CompletedBy)
	assert.Equal(t, f.alice.ID, *done.CompletedBy)
	assert.Equal(t, 1, f.reloadTask(t, task.ID).CompletedSubtaskCount)

	// moving back out of completed clears the stamps
	reopened, err := f.engine.UpdateSubtaskStatus(sub.ID, "in_progress", Actor{UserID: f.bob.ID})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)
	assert.Nil(t, reopened.CompletedBy)
	assert.Equal(t, 0, f.reloadTask(t, task.ID).CompletedSubtaskCount)

	_, err = f.engine.UpdateSubtaskStatus(sub.ID, "halfway", Actor{UserID: f.alice.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	outsider := createUser(t, f.db, "Eve", "eve@example.com")
	_, err = f.engine.UpdateSubtaskStatus(sub.ID, "completed", Actor{UserID: outsider.ID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteSubtaskRecounts(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)

	sub, err := f.engine.CreateSubtask(task.ID, SubtaskInput{Title: "Weed the plot"}, f.adminActor())
	require.NoError(t, err)
	_, err = f.engine.UpdateSubtaskStatus(sub.ID, "completed", Actor{UserID: f.alice.ID})
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteSubtask(sub.ID, f.adminActor()))
	parent := f.reloadTask(t, task.ID)
	assert.Equal(t, 0, parent.SubtaskCount)
	assert.Equal(t, 0, parent.CompletedSubtaskCount)

	err = f.engine.DeleteSubtask(sub.ID, f.adminActor())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorderSubtasks(t *testing.T) {
	f := setupEngine(t)
	task := f.createTask(t, TaskTypeGroup, 2)

	a, err := f.engine.CreateSubtask(task.ID, SubtaskInput{Title: "First"}, f.adminActor())
	require.NoError(t, err)
	b, err := f.engine.CreateSubtask(task.ID, SubtaskInput{Title: "Second"}, f.adminActor())
	require.NoError(t, err)

	require.NoError(t, f.engine.ReorderSubtasks(task.ID, []uint{b.ID, a.ID}, f.adminActor()))

	var posA, posB int
	require.NoError(t, f.db.Table("subtasks").Where("id = ?", a.ID).Select("position").Scan(&posA).Error)
	require.NoError(t, f.db.Table("subtasks").Where("id = ?", b.ID).Select("position").Scan(&posB).Error)
	assert.Equal(t, 0, posB)
	assert.Equal(t, 1, posA)

	err = f.engine.ReorderSubtasks(task.ID, []uint{b.ID, 9999}, f.adminActor())
	assert.ErrorIs(t, err, ErrInvalidInput, "foreign subtask ids are refused")

	err = f.engine.ReorderSubtasks(task.ID, []uint{a.ID, b.ID}, Actor{UserID: f.alice.ID})
	assert.ErrorIs(t, err, ErrForbidden)
}
