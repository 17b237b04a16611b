package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/SscSPs/fintrack/internal/dto"
	"github.com/SscSPs/fintrack/internal/platform/app"
	"github.com/SscSPs/fintrack/pkg/database"
)

type migrateCmd struct {
	Direction string `arg:"" help:"up, or down to roll back one step."`
}

func (c *migrateCmd) Run(rt *runtime) error {
	direction := strings.ToLower(c.Direction)
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", c.Direction)
	}
	cfg, err := rt.config()
	if err != nil {
		return err
	}
	if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath, direction); err != nil {
		return err
	}
	rt.logger.Info("Migrations applied", slog.String("direction", direction))
	return nil
}

type statementCmd struct {
	Upload statementUploadCmd `cmd:"" help:"Store a statement file as a pending statement."`
	Parse  statementParseCmd  `cmd:"" help:"Parse a pending statement into reviewable line items."`
	Import statementImportCmd `cmd:"" help:"Create transactions from a reviewed statement."`
	Show   statementShowCmd   `cmd:"" help:"Print a statement and its line items."`
}

type statementUploadCmd struct {
	User int64  `required:"" help:"Owner user id."`
	Card int64  `required:"" help:"Credit card id the statement belongs to."`
	Bank string `required:"" help:"Bank code of the parser to use (see finctl parsers)."`
	File string `arg:"" help:"Path of the statement file."`
}

func (c *statementUploadCmd) Run(rt *runtime) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.File, err)
	}
	svc, err := rt.services()
	if err != nil {
		return err
	}
	st, err := svc.Statement.UploadStatement(rt.ctx, c.User, dto.UploadStatementRequest{
		CreditCardID: c.Card,
		BankCode:     c.Bank,
		FileName:     filepath.Base(c.File),
	}, data)
	if err != nil {
		return err
	}
	return rt.print(st)
}

type statementParseCmd struct {
	User int64 `required:"" help:"Owner user id."`
	ID   int64 `arg:"" help:"Statement id."`
}

func (c *statementParseCmd) Run(rt *runtime) error {
	svc, err := rt.services()
	if err != nil {
		return err
	}
	res, err := svc.Statement.ParseStatement(rt.ctx, c.User, c.ID)
	if err != nil {
		return err
	}
	return rt.print(res)
}

type statementImportCmd struct {
	User       int64   `required:"" help:"Owner user id."`
	ID         int64   `arg:"" help:"Statement id."`
	Exclude    []int64 `help:"Line item ids to leave out." sep:","`
	UpdateBill bool    `help:"Subtract payments and reversals from the card's current bill."`
}

func (c *statementImportCmd) Run(rt *runtime) error {
	svc, err := rt.services()
	if err != nil {
		return err
	}
	res, err := svc.Statement.ImportStatement(rt.ctx, c.User, c.ID, dto.ImportStatementRequest{
		ExcludeLineItemIDs: c.Exclude,
		UpdateCurrentBill:  c.UpdateBill,
	})
	if err != nil {
		return err
	}
	return rt.print(res)
}

type statementShowCmd struct {
	User int64 `required:"" help:"Owner user id."`
	ID   int64 `arg:"" help:"Statement id."`
}

func (c *statementShowCmd) Run(rt *runtime) error {
	svc, err := rt.services()
	if err != nil {
		return err
	}
	st, err := svc.Statement.GetStatement(rt.ctx, c.User, c.ID)
	if err != nil {
		return err
	}
	items, err := svc.Statement.ListLineItems(rt.ctx, c.User, c.ID)
	if err != nil {
		return err
	}
	return rt.print(struct {
		Statement any `json:"statement"`
		dto.LineItemsResponse
	}{st, dto.NewLineItemsResponse(items)})
}

type transactionCmd struct {
	Delete transactionDeleteCmd `cmd:"" help:"Delete a transaction and reverse its effect."`
}

type transactionDeleteCmd struct {
	User int64 `required:"" help:"Owner user id."`
	ID   int64 `arg:"" help:"Transaction id."`
}

func (c *transactionDeleteCmd) Run(rt *runtime) error {
	svc, err := rt.services()
	if err != nil {
		return err
	}
	if err := svc.Transaction.DeleteTransaction(rt.ctx, c.User, c.ID); err != nil {
		return err
	}
	rt.logger.Info("Transaction deleted", slog.Int64("transaction_id", c.ID))
	return nil
}

type userCmd struct {
	Create userCreateCmd `cmd:"" help:"Register a login."`
}

type userCreateCmd struct {
	Name     string `required:"" help:"Display name."`
	Email    string `required:"" help:"Login email."`
	Password string `required:"" help:"Password, at least 8 characters."`
}

func (c *userCreateCmd) Run(rt *runtime) error {
	svc, err := rt.services()
	if err != nil {
		return err
	}
	user, err := svc.Auth.RegisterUser(rt.ctx, dto.CreateUserRequest{Name: c.Name, Email: c.Email, Password: c.Password})
	if err != nil {
		return err
	}
	return rt.print(dto.ToUserResponse(user))
}

type parsersCmd struct{}

func (c *parsersCmd) Run(rt *runtime) error {
	cfg, err := rt.config()
	if err != nil {
		return err
	}
	registry, _, err := app.NewParserRegistry(rt.ctx, cfg)
	if err != nil {
		return err
	}
	for _, code := range registry.Codes() {
		fmt.Fprintln(rt.out, code)
	}
	return nil
}
