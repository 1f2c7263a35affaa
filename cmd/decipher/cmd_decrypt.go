package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/decipher"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model/file"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/progress"
)

type decryptOptions struct {
	model      string
	input      string
	out        string
	encoding   string
	initialKey string
	stallLimit int
	restarts   int
	seed       int64
	seedSet    bool
	showKey    bool
}

type pipelineOptions struct {
	corpus   string
	model    string
	input    string
	encoding string
}

func newDecryptCmd(a *app) *cobra.Command {
	var opts decryptOptions
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Recover the plaintext of a substitution ciphertext",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")
			m, err := file.LoadModel(opts.model, a.alpha)
			if err != nil {
				return err
			}
			return a.decrypt(cmd, m, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.model, "model", "bigrams.txt", "model file written by train")
	f.StringVar(&opts.input, "input", "input.txt", "ciphertext file")
	f.StringVarP(&opts.out, "out", "o", "", "write plaintext here instead of stdout")
	f.StringVar(&opts.encoding, "encoding", "", "ciphertext encoding (default model.encoding)")
	f.StringVar(&opts.initialKey, "initial-key", "", "starting key (default: the alphabet itself)")
	f.IntVar(&opts.stallLimit, "stall-limit", 0, "stop after this many rejected swaps in a row (default search.stallLimit)")
	f.IntVar(&opts.restarts, "restarts", 0, "independent searches to run (default search.restarts)")
	f.Int64Var(&opts.seed, "seed", 0, "random seed (default search.seed)")
	f.BoolVar(&opts.showKey, "show-key", false, "print the recovered key before the plaintext")
	return cmd
}

func (a *app) decrypt(cmd *cobra.Command, m model.Model, opts decryptOptions) error {
	ciphertext, err := corpus.Load(opts.input, a.encoding(opts.encoding))
	if err != nil {
		return err
	}
	// Ctrl-C stops the search and still prints the best key found so far.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := decipher.New(a.alpha, a.cfg.Search,
		decipher.WithDefaultModel(m),
		decipher.WithReporter(progress.NewLogObserver(slog.Default(), a.cfg.Search.LogEvery)),
	)
	req := decipher.DecryptRequest{
		Ciphertext: ciphertext,
		StallLimit: opts.stallLimit,
		Restarts:   opts.restarts,
		InitialKey: opts.initialKey,
	}
	if opts.seedSet {
		req.Seed = &opts.seed
	}
	resp, err := svc.Decrypt(ctx, req)
	if err != nil {
		return err
	}

	if opts.out == "" {
		return writePlaintext(cmd.OutOrStdout(), resp, opts.showKey)
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", opts.out, err)
	}
	if err := writePlaintext(f, resp, opts.showKey); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", opts.out, err)
	}
	return nil
}

func writePlaintext(w io.Writer, resp *decipher.DecryptResponse, showKey bool) error {
	if showKey {
		if _, err := fmt.Fprintln(w, resp.Key); err != nil {
			return fmt.Errorf("writing key: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w, resp.Plaintext); err != nil {
		return fmt.Errorf("writing plaintext: %w", err)
	}
	return nil
}

func (a *app) runPipeline(cmd *cobra.Command, p pipelineOptions) error {
	m, err := a.train(p.corpus, p.encoding, p.model)
	if err != nil {
		return err
	}
	return a.decrypt(cmd, m, decryptOptions{input: p.input, encoding: p.encoding})
}
