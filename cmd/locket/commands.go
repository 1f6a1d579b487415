package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zoobzio/locket"
)

const version = "0.1.0"

var (
	errNoKey       = errors.New("no key: pass --key or set LOCKET_KEY")
	errNegativeTTL = errors.New("ttl must not be negative")
)

func newRootCmd(cfg *Config) *cobra.Command {
	var keyFlag string

	rootCmd := &cobra.Command{
		Use:           "locket",
		Short:         "Encrypt and decrypt locket tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&keyFlag, "key", "", "Key as url-safe base64 or hex (or set LOCKET_KEY)")

	resolveKey := func() (locket.Key, error) {
		s := keyFlag
		if s == "" {
			s = cfg.Key
		}
		if s == "" {
			return locket.Key{}, errNoKey
		}
		return locket.DecodeKey(s)
	}

	rootCmd.AddCommand(keygenCmd())
	rootCmd.AddCommand(encryptCmd(resolveKey))
	rootCmd.AddCommand(decryptCmd(cfg, resolveKey))
	rootCmd.AddCommand(inspectCmd(resolveKey))
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// versionCmd prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "locket version %s\n", version)
		},
	}
}

// keygenCmd prints fresh key material.
func keygenCmd() *cobra.Command {
	var asHex bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := locket.GenerateKey(nil)
			if err != nil {
				return fmt.Errorf("generating key: %w", err)
			}
			slog.Debug("generated key", "fingerprint", key.Fingerprint())

			if asHex {
				fmt.Fprintln(cmd.OutOrStdout(), strings.ToUpper(hex.EncodeToString(key[:])))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), key.Encode())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "Print the key as hex instead of base64")
	return cmd
}

// encryptCmd encrypts an argument, or stdin when none is given.
func encryptCmd(resolveKey func() (locket.Key, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [plaintext]",
		Short: "Encrypt plaintext into a token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveKey()
			if err != nil {
				return err
			}

			var plaintext []byte
			if len(args) == 1 {
				plaintext = []byte(args[0])
			} else {
				plaintext, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
			}

			token, err := locket.NewTokenCodec().Encode(plaintext, key, time.Now())
			if err != nil {
				return fmt.Errorf("encrypting: %w", err)
			}
			slog.Debug("encrypted", "fingerprint", key.Fingerprint(), "size", len(plaintext))

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

// decryptCmd verifies and decrypts a token.
func decryptCmd(cfg *Config, resolveKey func() (locket.Key, error)) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "decrypt <token>",
		Short: "Decrypt a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl < 0 {
				return errNegativeTTL
			}
			key, err := resolveKey()
			if err != nil {
				return err
			}

			plaintext, err := locket.NewTokenCodec().Decode(strings.TrimSpace(args[0]), key, ttl, time.Now())
			if err != nil {
				return fmt.Errorf("decrypting: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(plaintext)
			return err
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", cfg.TTL, "Reject tokens older than this; 0 disables (or set LOCKET_TTL)")
	return cmd
}

// inspectCmd prints a token's creation time after verifying it.
func inspectCmd(resolveKey func() (locket.Key, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Show when a token was created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveKey()
			if err != nil {
				return err
			}

			created, err := locket.NewTokenCodec().Timestamp(strings.TrimSpace(args[0]), key)
			if err != nil {
				return fmt.Errorf("inspecting: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "created: %s\n", created.UTC().Format(time.RFC3339))
			fmt.Fprintf(w, "age:     %s\n", time.Since(created).Truncate(time.Second))
			fmt.Fprintf(w, "key:     %s\n", key.Fingerprint())
			return nil
		},
	}
}
