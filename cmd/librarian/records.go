package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

const dateLayout = "2006-01-02"

func parseID(kind model.Kind, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, recorderr.InvalidInput(kind, fmt.Errorf("id %q: %w", s, err))
	}
	return id, nil
}

func optionalID(kind model.Kind, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := parseID(kind, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want %s", s, dateLayout)
	}
	return t, nil
}

func newTeacherCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teacher",
		Short: "Manage teachers",
	}

	var in model.TeacherInput
	var account string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a teacher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.AccountID, err = optionalID(model.KindAccount, account); err != nil {
				return err
			}
			teacher, err := a.container.Manager().CreateTeacher(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), teacher)
		},
	}
	create.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	create.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	create.Flags().StringVar(&in.Email, "email", "", "email address")
	create.Flags().StringVar(&account, "account", "", "id of the owning account")
	required(create, "first-name", "last-name", "email")

	cmd.AddCommand(create)
	return cmd
}

func newStudentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Manage students",
	}

	var in model.StudentInput
	var account string
	create := &cobra.Command{
		Use:   "create",
		Short: "Enrol a student under a teacher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.AccountID, err = optionalID(model.KindAccount, account); err != nil {
				return err
			}
			student, err := a.container.Manager().CreateStudent(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), student)
		},
	}
	create.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	create.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	create.Flags().StringVar(&in.Email, "email", "", "email address")
	create.Flags().StringVar(&in.TeacherEmail, "teacher-email", "", "email of the teacher")
	create.Flags().StringVar(&account, "account", "", "id of the owning account")
	required(create, "first-name", "last-name", "email", "teacher-email")

	var teacherEmail string
	move := &cobra.Command{
		Use:   "move <student-id>",
		Short: "Move a student to another teacher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(model.KindStudent, args[0])
			if err != nil {
				return err
			}
			student, err := a.container.Manager().MoveStudent(cmd.Context(), id, teacherEmail)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), student)
		},
	}
	move.Flags().StringVar(&teacherEmail, "teacher-email", "", "email of the new teacher")
	required(move, "teacher-email")

	cmd.AddCommand(create, move)
	return cmd
}

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage the catalogue",
	}

	var in model.BookInput
	var published string
	create := &cobra.Command{
		Use:   "create",
		Short: "Catalogue a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.PublicationDate, err = parseDate(published); err != nil {
				return err
			}
			book, err := a.container.Manager().CreateBook(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), book)
		},
	}
	create.Flags().StringVar(&in.Title, "title", "", "title")
	create.Flags().StringVar(&in.Author, "author", "", "author")
	create.Flags().StringVar(&in.Publisher, "publisher", "", "publisher")
	create.Flags().StringVar(&published, "published", "", "publication date ("+dateLayout+")")
	create.Flags().StringVar(&in.ISBN, "isbn", "", "ISBN")
	required(create, "title", "author", "publisher", "published", "isbn")

	cmd.AddCommand(create)
	return cmd
}
