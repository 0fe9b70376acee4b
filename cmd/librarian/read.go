package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

const (
	byID    = "id"
	byEmail = "email"
	byISBN  = "isbn"
	byTitle = "title"
)

func newGetCmd(a *app) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "get <kind> <key>",
		Short: "Show one record with its related records",
		Long: "Show one record. The key is an id unless --by selects a unique field:\n" +
			"email for students and teachers, isbn or title for books.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return recorderr.InvalidInput(model.Kind(args[0]), err)
			}
			v, err := a.get(cmd.Context(), kind, by, args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&by, "by", byID, "lookup field: id, email, isbn or title")
	return cmd
}

func (a *app) get(ctx context.Context, kind model.Kind, by, key string) (any, error) {
	q := a.container.Query()
	if by != byID {
		switch {
		case kind == model.KindBook && by == byISBN:
			return q.BookByISBN(ctx, key)
		case kind == model.KindBook && by == byTitle:
			return q.BookByTitle(ctx, key)
		case kind == model.KindStudent && by == byEmail:
			return q.StudentByEmail(ctx, key)
		case kind == model.KindTeacher && by == byEmail:
			return q.TeacherByEmail(ctx, key)
		}
		return nil, unsupported(kind.String() + " lookup by " + by)
	}

	id, err := parseID(kind, key)
	if err != nil {
		return nil, err
	}
	switch kind {
	case model.KindBook:
		return q.Book(ctx, id)
	case model.KindStudent:
		return q.Student(ctx, id)
	case model.KindTeacher:
		return q.Teacher(ctx, id)
	case model.KindBorrow:
		return q.Borrow(ctx, id)
	default:
		return q.Account(ctx, id)
	}
}

type listOptions struct {
	status  string
	teacher string
	student string
	book    string
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List books, students, teachers, borrows or accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return recorderr.InvalidInput(model.Kind(args[0]), err)
			}
			v, err := a.list(cmd.Context(), kind, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&opts.status, "status", "", "books with this status (available, borrowed)")
	cmd.Flags().StringVar(&opts.teacher, "teacher", "", "students of this teacher id")
	cmd.Flags().StringVar(&opts.student, "student", "", "borrows of this student id")
	cmd.Flags().StringVar(&opts.book, "book", "", "borrows of this book id")
	cmd.MarkFlagsMutuallyExclusive("student", "book")
	return cmd
}

func (a *app) list(ctx context.Context, kind model.Kind, opts listOptions) (any, error) {
	q := a.container.Query()
	switch kind {
	case model.KindBook:
		if opts.status != "" {
			return q.BooksByStatus(ctx, model.BookStatus(opts.status))
		}
		return q.Books(ctx)
	case model.KindStudent:
		if opts.teacher != "" {
			return byOwner(ctx, model.KindTeacher, opts.teacher, q.TeacherStudents)
		}
		return q.Students(ctx)
	case model.KindTeacher:
		return q.Teachers(ctx)
	case model.KindBorrow:
		switch {
		case opts.student != "":
			return byOwner(ctx, model.KindStudent, opts.student, q.BorrowsByStudent)
		case opts.book != "":
			return byOwner(ctx, model.KindBook, opts.book, q.BorrowsByBook)
		}
		return q.Borrows(ctx)
	case model.KindAccount:
		// accounts are not cached
		return a.container.Store().ListAccounts(ctx)
	}
	return nil, unsupported("listing " + kind.Plural())
}

func byOwner[V any](ctx context.Context, kind model.Kind, key string, list func(context.Context, uuid.UUID) ([]V, error)) ([]V, error) {
	id, err := parseID(kind, key)
	if err != nil {
		return nil, err
	}
	return list(ctx, id)
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete a record that nothing references",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return recorderr.InvalidInput(model.Kind(args[0]), err)
			}
			id, err := parseID(kind, args[1])
			if err != nil {
				return err
			}
			if err := a.container.Manager().DeleteEntity(cmd.Context(), kind, id); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"deleted": kind.String(),
				"id":      id.String(),
			})
		},
	}
}
