package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <title>...",
	Short: "Show the classifier decision for product titles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := loadRules(cmd)
		if err != nil {
			return err
		}
		for _, title := range args {
			d := rs.Classify(title)
			verdict := "excluded"
			if d.Included {
				verdict = "included"
			}
			fmt.Printf("%-9s family=%-10q brand=%-12q %s\n", verdict, d.Family, d.Brand, title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().String("rules", "", "Path to a YAML rules file overriding the built-in vocabulary")
}
