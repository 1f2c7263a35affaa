// Command decipher trains bigram models and breaks substitution ciphers from
// the command line.
//
// Run without a sub-command it does the whole job in one go: train on
// WarAndWorld.txt, save bigrams.txt, then decrypt input.txt to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/logger"
)

// app carries what every sub-command needs once the root has loaded config.
type app struct {
	configPath string
	alphaFlag  string
	logLevel   string

	cfg   *config.Config
	alpha *alphabet.Alphabet
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var pipe pipelineOptions

	root := &cobra.Command{
		Use:   "decipher",
		Short: "Break monoalphabetic substitution ciphers with bigram statistics",
		Long: `decipher learns the bigram statistics of a language from a corpus and
hill-climbs over substitution keys until a ciphertext's bigrams match them.

With no sub-command it trains on --corpus, saves the model to --model and
decrypts --input, printing the plaintext to stdout.

Examples:
  decipher train --corpus WarAndWorld.txt --out bigrams.txt
  decipher decrypt --model bigrams.txt --input input.txt
  decipher encrypt --key "$(decipher keygen --seed 42)" --input plain.txt`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPipeline(cmd, pipe)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.alphaFlag, "alphabet", "", "override cipher.alphabet")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.Flags().StringVar(&pipe.corpus, "corpus", "WarAndWorld.txt", "training corpus")
	root.Flags().StringVar(&pipe.model, "model", "bigrams.txt", "where to save the trained model")
	root.Flags().StringVar(&pipe.input, "input", "input.txt", "ciphertext to decrypt")
	root.Flags().StringVar(&pipe.encoding, "encoding", "", "encoding of corpus and input (default model.encoding)")

	root.AddCommand(
		newTrainCmd(a),
		newDecryptCmd(a),
		newEncryptCmd(a),
		newKeygenCmd(a),
		newDistanceCmd(a),
	)
	return root
}

// setup loads config, applies global flag overrides and sends logs to
// stderr so stdout stays clean for plaintext.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.alphaFlag != "" {
		cfg.Cipher.Alphabet = a.alphaFlag
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, "text")

	alpha, err := alphabet.New(cfg.Cipher.Alphabet)
	if err != nil {
		return fmt.Errorf("cipher.alphabet: %w", err)
	}
	a.cfg = cfg
	a.alpha = alpha
	return nil
}

// encoding resolves a per-command --encoding flag against model.encoding.
func (a *app) encoding(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Model.Encoding
}
