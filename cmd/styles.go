package cmd

import (
	"fmt"

	"github.com/shouni/go-ehon-kit/pkg/prompts"

	"github.com/spf13/cobra"
)

// stylesCmd は、--art-style に渡せる画風キーの一覧を表示するのだ。
var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "利用できる画風キーの一覧を表示するのだ。",
	RunE:  stylesCommand,
}

func stylesCommand(cmd *cobra.Command, args []string) error {
	for _, key := range prompts.StyleKeys() {
		descriptor, _ := prompts.ResolveArtStyle(key)
		marker := "  "
		if key == prompts.DefaultArtStyleKey {
			marker = "* "
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%-12s %s\n", marker, key, descriptor)
	}
	return nil
}
