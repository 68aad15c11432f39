package main

import (
	"github.com/Harshitk-cp/regula/internal/buildconfig"
	"github.com/spf13/cobra"
)

var (
	experimentType       string
	vocabularySize       int
	repetitions          int
	learnInteractions    int
	dialogueInteractions int
	frequency            int
	dialogues            int
	seed                 uint64
	writeResults         bool
	persist              bool
	paramsFile           string

	rootCmd = &cobra.Command{
		Use:   "regula",
		Short: "Run commitment-alignment experiments",
		Long: `regula generates random commitment regulae, lets a learner observe
interactions that follow them, and reports how quickly the learner
recovers the true meaning of every token.`,
		SilenceUsage: true,
		Version:      buildconfig.String(),
	}

	learnCmd = &cobra.Command{
		Use:   "learn",
		Short: "Measure how fast a learner converges on a random regula",
		RunE:  runLearn,
	}

	dialogueCmd = &cobra.Command{
		Use:   "dialogue",
		Short: "Let learned agents talk to agents holding the true regula",
		RunE:  runDialogue,
	}
)

func init() {
	rootCmd.PersistentFlags().IntVar(&vocabularySize, "vocabulary", 12, "Vocabulary size")
	rootCmd.PersistentFlags().IntVar(&repetitions, "repetitions", 10, "Independent repetitions to average over")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	rootCmd.PersistentFlags().BoolVar(&persist, "persist", false, "Store the experiment in DATABASE_URL")
	rootCmd.PersistentFlags().StringVar(&paramsFile, "params", "", "YAML file with parameter overrides (defaults to PARAMS_FILE)")

	learnCmd.Flags().StringVar(&experimentType, "type", "basic", "Experiment type: basic, create, release, punish, frequency or policy")
	learnCmd.Flags().IntVar(&learnInteractions, "interactions", 1000, "Interactions per repetition")
	learnCmd.Flags().IntVar(&frequency, "frequency", 1, "Discharge-priority replication factor for generated interactions")
	learnCmd.Flags().BoolVar(&writeResults, "write", false, "Write the mean curve to results-<vocabulary>-<type>-<frequency>")

	dialogueCmd.Flags().IntVar(&dialogueInteractions, "interactions", 200, "Interactions the learner observes before talking")
	dialogueCmd.Flags().IntVar(&dialogues, "dialogues", 0, "Dialogues per repetition (defaults to --repetitions)")

	rootCmd.AddCommand(learnCmd, dialogueCmd)
}
