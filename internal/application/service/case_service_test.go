package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/garyjia/case-tracker/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type caseFixture struct {
	svc      CaseService
	cases    *mockCaseRepo
	comments *mockCommentRepo
	answers  *mockAnswerRepo
	events   *mockEventRepo
}

func newCaseFixture(t *testing.T) *caseFixture {
	t.Helper()
	cat := newCatalogFixture()
	cat.seed(t)
	_, err := cat.svc.CreateTemplate(context.Background(), validDefinition())
	require.NoError(t, err)

	f := &caseFixture{
		cases:    cat.cases,
		comments: newMockCommentRepo(),
		answers:  &mockAnswerRepo{},
		events:   &mockEventRepo{},
	}
	recorder := NewEventRecorder(f.events, NopLogger{})
	f.svc = NewCaseService(f.cases, f.answers, f.comments, cat.svc, recorder, &passthroughTx{}, "", NopLogger{})
	return f
}

func TestCaseService_ResolveOrCreateCase(t *testing.T) {
	f := newCaseFixture(t)
	ctx := context.Background()
	actor := entity.Actor{UserID: "u1", Username: "alice"}

	kase, created, err := f.svc.ResolveOrCreateCase(ctx, "t1", "", "u1", actor)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, entity.StatusActive, kase.Status)
	assert.Equal(t, "s1", kase.CurrentStageID)
	assert.Equal(t, "r1", kase.CurrentRoleID)
	assert.Equal(t, "u1", kase.AssignedUserID)
	assert.Equal(t, "alice", kase.AuthorUsername)
	assert.Regexp(t, `^CASE-[0-9A-F]{8}$`, kase.CaseNumber)

	again, created, err := f.svc.ResolveOrCreateCase(ctx, "t1", kase.ID, "u2", actor)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, kase, again)
	assert.Len(t, f.cases.cases, 1)

	fresh, created, err := f.svc.ResolveOrCreateCase(ctx, "t1", "unknown", "u2", entity.Actor{})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, kase.ID, fresh.ID)
	assert.Equal(t, DefaultAnonymousUser, fresh.AuthorUsername)

	f.cases.cases["other"] = &entity.Case{ID: "other", WorkflowID: "t2"}
	_, _, err = f.svc.ResolveOrCreateCase(ctx, "t1", "other", "u1", actor)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = f.svc.ResolveOrCreateCase(ctx, "missing", "", "u1", actor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCaseService_GetCase(t *testing.T) {
	f := newCaseFixture(t)
	ctx := context.Background()
	kase, _, err := f.svc.ResolveOrCreateCase(ctx, "t1", "", "u1", entity.Actor{})
	require.NoError(t, err)

	view, err := f.svc.GetCase(ctx, kase.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leave request", view.TemplateTitle)
	assert.Equal(t, "Intake", view.CurrentStage)
	assert.Equal(t, "Role r1", view.CurrentRole)
	require.Len(t, view.Answers, 1)
	assert.False(t, view.Answers[0].Answered)

	f.answers.upserted = []*entity.Answer{{CaseID: kase.ID, QuestionID: "q1", AnswerText: "Ann"}}
	view, err = f.svc.GetCase(ctx, kase.ID)
	require.NoError(t, err)
	assert.True(t, view.Answers[0].Answered)
	assert.Equal(t, "Ann", view.Answers[0].Answer)

	_, err = f.svc.GetCase(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCaseService_AddComment(t *testing.T) {
	f := newCaseFixture(t)
	ctx := context.Background()
	actor := entity.Actor{UserID: "u1", Username: "bob"}
	kase, _, err := f.svc.ResolveOrCreateCase(ctx, "t1", "", "u1", actor)
	require.NoError(t, err)
	f.cases.cases["c2"] = &entity.Case{ID: "c2", WorkflowID: "t1"}

	root, err := f.svc.AddComment(ctx, kase.ID, "", "  first\x00 note ", actor)
	require.NoError(t, err)
	assert.Equal(t, "first note", root.Content)
	assert.Equal(t, "bob", root.UserID)

	reply, err := f.svc.AddComment(ctx, kase.ID, root.ID, "reply", entity.Actor{})
	require.NoError(t, err)
	assert.Equal(t, root.ID, reply.ParentID)
	assert.Equal(t, DefaultAnonymousUser, reply.UserID)

	_, err = f.svc.AddComment(ctx, "c2", root.ID, "cross case", actor)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddComment(ctx, kase.ID, "ghost", "dangling", actor)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.AddComment(ctx, kase.ID, "", "   ", actor)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddComment(ctx, "missing", "", "hello", actor)
	assert.ErrorIs(t, err, ErrNotFound)

	view, err := f.svc.GetCase(ctx, kase.ID)
	require.NoError(t, err)
	require.Len(t, view.Comments, 1)
	require.Len(t, view.Comments[0].Replies, 1)
	assert.Equal(t, "reply", view.Comments[0].Replies[0].Content)
}

func TestCaseService_StatsDeleteHistory(t *testing.T) {
	f := newCaseFixture(t)
	ctx := context.Background()

	f.cases.counts = map[string]int{entity.StatusActive: 2, entity.StatusCompleted: 1}
	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Completed)

	kase, _, err := f.svc.ResolveOrCreateCase(ctx, "t1", "", "u1", entity.Actor{})
	require.NoError(t, err)
	f.events.events = append(f.events.events, event.NewEvent(event.TypeStageChange, kase.ID, "Intake", "Review"))

	history, err := f.svc.History(ctx, kase.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	exported, err := f.svc.ExportHistory(ctx, port.CaseFilter{})
	require.NoError(t, err)
	require.Len(t, exported, 1)
	assert.Equal(t, "Leave request", exported[0].TemplateTitle)
	assert.Len(t, exported[0].Events, 1)

	require.NoError(t, f.svc.DeleteCase(ctx, kase.ID))
	assert.Equal(t, []string{kase.ID}, f.cases.deleted)
	assert.ErrorIs(t, f.svc.DeleteCase(ctx, kase.ID), ErrNotFound)

	_, err = f.svc.History(ctx, kase.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	f.cases.getErr = errors.New("io error")
	_, err = f.svc.GetCase(ctx, "any")
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestCommentTree(t *testing.T) {
	flat := []*entity.Comment{
		{ID: "a", Content: "root a"},
		{ID: "b", Content: "root b"},
		{ID: "a1", ParentID: "a", Content: "reply a1"},
		{ID: "a1x", ParentID: "a1", Content: "nested"},
		{ID: "orphan", ParentID: "gone", Content: "orphan"},
		{ID: "a2", ParentID: "a", Content: "reply a2"},
	}

	tree := CommentTree(flat)
	require.Len(t, tree, 3)
	assert.Equal(t, "a", tree[0].ID)
	assert.Equal(t, "b", tree[1].ID)
	assert.Equal(t, "orphan", tree[2].ID)
	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, "a1", tree[0].Replies[0].ID)
	assert.Equal(t, "a2", tree[0].Replies[1].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Nil(t, flat[0].Replies)
}
