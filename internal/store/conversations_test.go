package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/katakuxiko/deenbot/internal/model"
)

var _ = Describe("Conversations", func() {
	var (
		s    *PgStore
		mock sqlmock.Sqlmock
		ctx  context.Context
		id   uuid.UUID
		now  time.Time
	)

	convColumns := []string{"id", "user_id", "title", "created_at", "updated_at"}
	msgColumns := []string{"id", "conversation_id", "role", "content", "created_at"}

	BeforeEach(func() {
		db, m, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		s = New(db)
		mock = m
		ctx = context.Background()
		id = uuid.New()
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		DeferCleanup(func() { _ = db.Close() })
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	Describe("CreateConversation", func() {
		It("assigns an id and timestamps", func() {
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO conversations")).
				WithArgs(sqlmock.AnyArg(), "testuser", "Zakat", sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, 1))

			conv, err := s.CreateConversation(ctx, "testuser", "Zakat")
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.ID).NotTo(Equal(uuid.Nil))
			Expect(conv.UserID).To(Equal("testuser"))
			Expect(conv.CreatedAt).To(Equal(conv.UpdatedAt))
		})

		It("wraps insert errors", func() {
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO conversations")).WillReturnError(errors.New("relation does not exist"))

			_, err := s.CreateConversation(ctx, "testuser", "")
			Expect(err).To(MatchError(ContainSubstring("could not insert conversation")))
		})
	})

	Describe("ListConversations", func() {
		It("returns the user's conversations", func() {
			other := uuid.New()
			mock.ExpectQuery(regexp.QuoteMeta("ORDER BY updated_at DESC")).
				WithArgs("testuser").
				WillReturnRows(sqlmock.NewRows(convColumns).
					AddRow(id.String(), "testuser", "first", now, now).
					AddRow(other.String(), "testuser", "second", now, now.Add(-time.Hour)))

			convs, err := s.ListConversations(ctx, "testuser")
			Expect(err).NotTo(HaveOccurred())
			Expect(convs).To(HaveLen(2))
			Expect(convs[0].ID).To(Equal(id))
			Expect(convs[1].Title).To(Equal("second"))
		})

		It("returns an empty slice when there are none", func() {
			mock.ExpectQuery("FROM conversations").WillReturnRows(sqlmock.NewRows(convColumns))

			convs, err := s.ListConversations(ctx, "nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(convs).NotTo(BeNil())
			Expect(convs).To(BeEmpty())
		})
	})

	Describe("GetConversation", func() {
		It("scans the row", func() {
			mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).
				WithArgs(id.String(), "testuser").
				WillReturnRows(sqlmock.NewRows(convColumns).AddRow(id.String(), "testuser", "t", now, now))

			conv, err := s.GetConversation(ctx, id, "testuser")
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.ID).To(Equal(id))
			Expect(conv.CreatedAt).To(Equal(now))
		})

		It("maps missing rows to ErrNotFound", func() {
			mock.ExpectQuery("FROM conversations").WillReturnRows(sqlmock.NewRows(convColumns))

			_, err := s.GetConversation(ctx, id, "testuser")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("DeleteConversation", func() {
		It("deletes an owned conversation", func() {
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM conversations")).
				WithArgs(id.String(), "testuser").
				WillReturnResult(sqlmock.NewResult(0, 1))

			Expect(s.DeleteConversation(ctx, id, "testuser")).To(Succeed())
		})

		It("reports ErrNotFound when nothing matched", func() {
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM conversations")).
				WillReturnResult(sqlmock.NewResult(0, 0))

			Expect(s.DeleteConversation(ctx, id, "intruder")).To(MatchError(ErrNotFound))
		})
	})

	Describe("SetTitle", func() {
		It("only fills an empty title", func() {
			mock.ExpectExec(regexp.QuoteMeta("UPDATE conversations SET title = $2 WHERE id = $1 AND title = ''")).
				WithArgs(id.String(), "ما حكم").
				WillReturnResult(sqlmock.NewResult(0, 1))

			Expect(s.SetTitle(ctx, id, "ما حكم")).To(Succeed())
		})
	})

	Describe("AddMessages", func() {
		It("inserts every message and touches the conversation in one transaction", func() {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).
				WithArgs(sqlmock.AnyArg(), id.String(), model.RoleUser, "question", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).
				WithArgs(sqlmock.AnyArg(), id.String(), model.RoleAssistant, "answer", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("UPDATE conversations SET updated_at")).
				WithArgs(id.String(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			q := &model.Message{ConversationID: id, Role: model.RoleUser, Content: "question"}
			a := &model.Message{ConversationID: id, Role: model.RoleAssistant, Content: "answer"}
			Expect(s.AddMessages(ctx, q, a)).To(Succeed())
			Expect(q.ID).NotTo(Equal(uuid.Nil))
			Expect(a.ID).NotTo(Equal(q.ID))
			Expect(a.CreatedAt).To(BeTemporally(">", q.CreatedAt))
		})

		It("does nothing without messages", func() {
			Expect(s.AddMessages(ctx)).To(Succeed())
		})

		It("rolls back the question when the answer cannot be inserted", func() {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).WillReturnError(errors.New("disk full"))
			mock.ExpectRollback()

			err := s.AddMessages(ctx,
				&model.Message{ConversationID: id, Role: model.RoleUser, Content: "q"},
				&model.Message{ConversationID: id, Role: model.RoleAssistant, Content: "a"},
			)
			Expect(err).To(MatchError(ContainSubstring("could not insert message")))
		})

		It("rolls back when the conversation is gone", func() {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("UPDATE conversations")).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectRollback()

			err := s.AddMessages(ctx, &model.Message{ConversationID: id, Role: model.RoleAssistant, Content: "a"})
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("ListMessages", func() {
		It("returns messages oldest first", func() {
			mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC")).
				WithArgs(id.String()).
				WillReturnRows(sqlmock.NewRows(msgColumns).
					AddRow(uuid.NewString(), id.String(), "user", "q", now).
					AddRow(uuid.NewString(), id.String(), "assistant", "a", now.Add(time.Second)))

			msgs, err := s.ListMessages(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal(model.RoleUser))
			Expect(msgs[1].Content).To(Equal("a"))
			Expect(msgs[1].ConversationID).To(Equal(id))
		})
	})
})
