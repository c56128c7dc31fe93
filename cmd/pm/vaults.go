package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Hussein-Mazeh/pwvault/auth"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known vaults",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := a.svc.ListVaults()
			if len(ids) == 0 {
				fmt.Fprintln(a.out, "No vaults yet. Create one with: pm create <name>")
				return nil
			}

			t := table.New().Border(lipgloss.NormalBorder()).Headers("NAME", "LAST ACCESSED")
			for _, id := range ids {
				t.Row(id.Name, id.LastAccessed.Local().Format(time.DateTime))
			}
			fmt.Fprintln(a.out, t.Render())
			return nil
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty vault",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := auth.ValidateVaultName(name); err != nil {
				return err
			}
			pw, err := a.readNewPassword("Master password: ", "Confirm master password: ")
			if err != nil {
				return err
			}

			a.warnIfWeak(cmd.Context(), name, pw)
			if err := a.svc.RegisterVault(name, pw); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Vault %q created at %s\n", name, a.svc.VaultPath(name))
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <name>",
		Short: "Register an existing vault file",
		Long: `Registers <data-dir>/<name>.vault, for example after "pm remove"
kept the file or after copying a vault from another machine. The master
password must open the vault.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			pw, err := a.readPassword("Master password: ")
			if err != nil {
				return err
			}
			if err := a.svc.ImportVault(name, pw); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Vault %q imported\n", name)
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	var deleteFile bool
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Forget a vault",
		Long: `Removes the vault from the list of known vaults. The encrypted file
stays on disk unless --delete-file is given.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := a.svc.RemoveVault(name, deleteFile); err != nil {
				return err
			}
			if deleteFile {
				fmt.Fprintf(a.out, "Vault %q removed and its file deleted\n", name)
			} else {
				fmt.Fprintf(a.out, "Vault %q removed; file kept at %s\n", name, a.svc.VaultPath(name))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deleteFile, "delete-file", false, "also delete the encrypted vault file")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <name>",
		Short: "Show the container header of a vault without decrypting it",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			h, err := a.svc.InspectVault(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "file:       %s\n", a.svc.VaultPath(name))
			fmt.Fprintf(a.out, "salt:       %s\n", hex.EncodeToString(h.Salt))
			fmt.Fprintf(a.out, "nonce:      %s\n", hex.EncodeToString(h.Nonce))
			fmt.Fprintf(a.out, "ciphertext: %d bytes (including 16-byte tag)\n", h.SealedLen)
			return nil
		},
	}
}
