package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-dialogue/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Session flags
	modelFlag string
	voiceFlag string
)

var rootCmd = &cobra.Command{
	Use:   "ema-dialogue",
	Short: "Talk to a language model through your microphone and speakers",
	Long: `ema-dialogue - a spoken conversation with a language model.

Listens on the default microphone, transcribes each utterance, asks the
configured language model for a reply and speaks it back. Say one of the
exit phrases ("exit" or "quit" by default) or press Ctrl-C to stop.

Settings come from built-in defaults, an optional YAML file (--config) and
the environment (a .env file in the working directory is read too):

  DEEPGRAM_API_KEY   speech recognition and Deepgram voices
  OPENAI_API_KEY     llm.provider: openai
  GROQ_API_KEY       llm.provider: groq
  OLLAMA_HOST        llm.provider: ollama
  EMA_LLM_MODEL      model override
  EMA_TTS_VOICE      voice override

Examples:
  ema-dialogue
  ema-dialogue --model llama3.1 --voice aura-luna-en
  ema-dialogue --config ema.yaml -v
  ema-dialogue config schema > ema.schema.json`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr(), verbose)
	},
	RunE: runSession,
}

// Execute runs the root command.
func Execute() error {
	defer shutdownLogging()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().StringVar(&modelFlag, "model", "", "language model to reply with")
	rootCmd.Flags().StringVar(&voiceFlag, "voice", "", "voice to speak with")

	rootCmd.AddCommand(configCmd)
}

// loadConfig resolves the effective config with command line overrides
// applied last.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if modelFlag != "" {
		cfg.LLM.Model = modelFlag
	}
	if voiceFlag != "" {
		cfg.Speech.Voice = voiceFlag
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --voice: %w", err)
		}
	}
	return cfg, nil
}
