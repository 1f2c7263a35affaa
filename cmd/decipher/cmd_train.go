package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model/file"
)

func newTrainCmd(a *app) *cobra.Command {
	var corpusPath, out, enc string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Build a bigram model from a corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.train(corpusPath, enc, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", m.ID, m.Pairs, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&corpusPath, "corpus", "WarAndWorld.txt", "training corpus")
	cmd.Flags().StringVarP(&out, "out", "o", "bigrams.txt", "model file to write")
	cmd.Flags().StringVar(&enc, "encoding", "", "corpus encoding (default model.encoding)")
	return cmd
}

func (a *app) train(corpusPath, enc, out string) (model.Model, error) {
	text, err := corpus.Load(corpusPath, a.encoding(enc))
	if err != nil {
		return model.Model{}, err
	}
	m := model.Train(a.alpha, text)
	if m.Pairs == 0 {
		return model.Model{}, fmt.Errorf("corpus %s has no adjacent pair of alphabet symbols", corpusPath)
	}
	if err := file.Save(out, m.Table); err != nil {
		return model.Model{}, err
	}
	slog.Info("model trained", "model_id", m.ID, "pairs", m.Pairs, "path", out)
	return m, nil
}
