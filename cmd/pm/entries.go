package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Hussein-Mazeh/pwvault/internal/service"
	"github.com/Hussein-Mazeh/pwvault/internal/vault"
)

// open prompts for the master password of name and unlocks it. Callers must
// Lock the session when done.
func (a *app) open(name string) (*service.Session, error) {
	pw, err := a.readPassword(fmt.Sprintf("Master password for %s: ", name))
	if err != nil {
		return nil, err
	}
	return a.svc.OpenVault(name, pw)
}

func newShowCmd(a *app) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "List the entries of a vault",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer sess.Lock()

			entries, err := sess.Entries()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out, "No entries.")
				return nil
			}

			t := table.New().Border(lipgloss.NormalBorder()).Headers("#", "SERVICE", "EMAIL", "PASSWORD", "NOTE")
			for i, e := range entries {
				if !reveal {
					e = e.Masked()
				}
				t.Row(strconv.Itoa(i+1), e.Service, e.Email, e.Password, e.Note)
			}
			fmt.Fprintln(a.out, t.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print passwords in clear text")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var rec vault.Record
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an entry to a vault",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rec.Service == "" {
				return userError{msg: "--service is required"}
			}

			sess, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer sess.Lock()

			pw, err := a.readNewPassword("Entry password: ", "Confirm entry password: ")
			if err != nil {
				return err
			}
			a.warnIfWeak(cmd.Context(), rec.Service, pw)
			rec.Password = pw

			if err := sess.Add(rec); err != nil {
				return err
			}
			if err := sess.Save(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added %s to %q\n", rec.Service, sess.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&rec.Service, "service", "", "service or site name (required)")
	cmd.Flags().StringVar(&rec.Email, "email", "", "login or email")
	cmd.Flags().StringVar(&rec.Note, "note", "", "free-form note")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		rec         vault.Record
		newPassword bool
	)
	cmd := &cobra.Command{
		Use:   "edit <name> <entry>",
		Short: "Change fields of an entry",
		Long: `Changes the fields given as flags on entry number <entry> as listed by
"pm show". --password prompts for a new entry password.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("service") && !flags.Changed("email") && !flags.Changed("note") && !newPassword {
				return userError{msg: "nothing to change: pass --service, --email, --note or --password"}
			}

			sess, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer sess.Lock()

			entries, err := sess.Entries()
			if err != nil {
				return err
			}
			if idx >= len(entries) {
				return service.ErrNoSuchEntry
			}

			updated := entries[idx]
			if flags.Changed("service") {
				updated.Service = rec.Service
			}
			if flags.Changed("email") {
				updated.Email = rec.Email
			}
			if flags.Changed("note") {
				updated.Note = rec.Note
			}
			if newPassword {
				pw, err := a.readNewPassword("New entry password: ", "Confirm entry password: ")
				if err != nil {
					return err
				}
				a.warnIfWeak(cmd.Context(), updated.Service, pw)
				updated.Password = pw
			}

			if err := sess.Update(idx, updated); err != nil {
				return err
			}
			if err := sess.Save(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated entry %d in %q\n", idx+1, sess.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&rec.Service, "service", "", "new service name")
	cmd.Flags().StringVar(&rec.Email, "email", "", "new login or email")
	cmd.Flags().StringVar(&rec.Note, "note", "", "new note")
	cmd.Flags().BoolVar(&newPassword, "password", false, "prompt for a new entry password")
	return cmd
}

func newDeleteEntryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-entry <name> <entry>",
		Short: "Delete an entry from a vault",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[1])
			if err != nil {
				return err
			}

			sess, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer sess.Lock()

			if err := sess.Delete(idx); err != nil {
				return err
			}
			if err := sess.Save(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted entry %d from %q\n", idx+1, sess.Name())
			return nil
		},
	}
}

func newCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <name> <entry>",
		Short: "Copy an entry password to the clipboard",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[1])
			if err != nil {
				return err
			}

			sess, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer sess.Lock()

			entries, err := sess.Entries()
			if err != nil {
				return err
			}
			if idx >= len(entries) {
				return service.ErrNoSuchEntry
			}

			if err := a.copy(entries[idx].Password); err != nil {
				return userError{msg: fmt.Sprintf("clipboard unavailable: %v", err)}
			}
			fmt.Fprintf(a.out, "Copied the %s password to the clipboard\n", entries[idx].Service)
			return nil
		},
	}
}
