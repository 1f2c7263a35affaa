package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/key"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/substitution"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/corpus"
)

func newEncryptCmd(a *app) *cobra.Command {
	var keyText, input, enc string
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a text with a substitution key",
		Long: `encrypt lowercases the input and replaces every alphabet symbol with the
key's symbol at the same position. Other characters pass through unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := key.Parse(a.alpha, keyText)
			if err != nil {
				return err
			}
			text, err := corpus.Load(input, a.encoding(enc))
			if err != nil {
				return err
			}
			out := substitution.Encrypt(a.alpha, []rune(corpus.Normalize(text)), k)
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&keyText, "key", "", "substitution key, a permutation of the alphabet")
	cmd.Flags().StringVar(&input, "input", "", "plaintext file")
	cmd.Flags().StringVar(&enc, "encoding", "", "plaintext encoding (default model.encoding)")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newKeygenCmd(a *app) *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a random substitution key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			k := key.Random(a.alpha, rand.New(rand.NewSource(seed)))
			fmt.Fprintln(cmd.OutOrStdout(), k.String())
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: current time)")
	return cmd
}
