package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-library-records/model"
)

func newBorrowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "borrow",
		Short: "Manage loans",
	}

	var student, book, date string
	create := &cobra.Command{
		Use:   "create",
		Short: "Request a loan; the book is reserved immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in model.BorrowInput
			var err error
			if in.StudentID, err = parseID(model.KindStudent, student); err != nil {
				return err
			}
			if in.BookID, err = parseID(model.KindBook, book); err != nil {
				return err
			}
			if in.BorrowDate, err = parseDate(date); err != nil {
				return err
			}
			borrow, err := a.container.Manager().CreateBorrow(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), borrow)
		},
	}
	create.Flags().StringVar(&student, "student", "", "student id")
	create.Flags().StringVar(&book, "book", "", "book id")
	create.Flags().StringVar(&date, "date", "", "borrow date ("+dateLayout+"), defaults to today")
	required(create, "student", "book")

	cmd.AddCommand(
		create,
		transitionCmd("approve", "Approve a pending loan", func(ctx context.Context, id uuid.UUID) (*model.Borrow, error) {
			return a.container.Manager().ApproveBorrow(ctx, id)
		}),
		transitionCmd("reject", "Reject a pending loan and release the book", func(ctx context.Context, id uuid.UUID) (*model.Borrow, error) {
			return a.container.Manager().RejectBorrow(ctx, id)
		}),
		transitionCmd("return", "Record the return of an approved loan", func(ctx context.Context, id uuid.UUID) (*model.Borrow, error) {
			return a.container.Manager().ReturnBorrow(ctx, id)
		}),
	)
	return cmd
}

func transitionCmd(use, short string, apply func(context.Context, uuid.UUID) (*model.Borrow, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <borrow-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(model.KindBorrow, args[0])
			if err != nil {
				return err
			}
			borrow, err := apply(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), borrow)
		},
	}
}
