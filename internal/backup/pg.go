package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// PGRunner shells out to pg_dump and psql from the postgresql client package.
type PGRunner struct{}

// Dump runs pg_dump in plain format with clean statements so the output can be replayed over a live schema.
func (PGRunner) Dump(ctx context.Context, conn ConnInfo, w io.Writer) error {
	if _, err := exec.LookPath("pg_dump"); err != nil {
		return fmt.Errorf("pg_dump not found in PATH (install postgresql-client): %w", err)
	}
	pgpass, err := createPgpassFile(conn)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(pgpass) }()

	cmd := exec.CommandContext(ctx, "pg_dump",
		"-h", conn.Host,
		"-p", conn.Port,
		"-U", conn.User,
		"-d", conn.Database,
		"--format=plain",
		"--no-owner",
		"--no-acl",
		"--clean",
		"--if-exists",
	)
	cmd.Env = append(os.Environ(), "PGPASSFILE="+pgpass)
	cmd.Stdout = w
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pg_dump: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Restore pipes SQL into psql, stopping at the first error inside a single transaction.
func (PGRunner) Restore(ctx context.Context, conn ConnInfo, r io.Reader) error {
	if _, err := exec.LookPath("psql"); err != nil {
		return fmt.Errorf("psql not found in PATH (install postgresql-client): %w", err)
	}
	pgpass, err := createPgpassFile(conn)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(pgpass) }()

	cmd := exec.CommandContext(ctx, "psql",
		"-h", conn.Host,
		"-p", conn.Port,
		"-U", conn.User,
		"-d", conn.Database,
		"--quiet",
		"--no-psqlrc",
		"--single-transaction",
		"-v", "ON_ERROR_STOP=1",
	)
	cmd.Env = append(os.Environ(), "PGPASSFILE="+pgpass)
	cmd.Stdin = r
	cmd.Stdout = io.Discard
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("psql: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func createPgpassFile(conn ConnInfo) (string, error) {
	if conn.Database == "" || conn.Host == "" {
		return "", errors.New("database connection is not configured")
	}
	f, err := os.CreateTemp("", "pgpass-*")
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if err := f.Chmod(0o600); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	line := fmt.Sprintf("%s:%s:%s:%s:%s\n", conn.Host, conn.Port, conn.Database, conn.User, escapePgpass(conn.Password))
	if _, err := f.WriteString(line); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func escapePgpass(v string) string {
	return strings.NewReplacer(`\`, `\\`, `:`, `\:`).Replace(v)
}
