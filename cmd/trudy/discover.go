package trudy

import (
	"fmt"

	"github.com/spf13/cobra"
)

var discoverRegister bool

func init() {
	discoverCmd.Flags().BoolVar(&discoverRegister, "register", false, "register discovered chats in state")
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List chats that have messaged the bot but are not tracked yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		m, err := loadManager()
		if err != nil {
			return err
		}
		fetcher, err := m.Fetcher()
		if err != nil {
			return err
		}

		chats, err := fetcher.Discover(ctx, discoverRegister)
		if err != nil {
			return err
		}

		if len(chats) == 0 {
			fmt.Println("No new chats discovered.")
			return nil
		}
		for _, chat := range chats {
			name := chat.FirstName
			if chat.LastName != "" {
				name += " " + chat.LastName
			}
			fmt.Printf("%-20s chat_id=%-12d %s\n", chat.Username, chat.ChatID, name)
		}
		if discoverRegister {
			fmt.Printf("Registered %d chat(s).\n", len(chats))
		} else {
			fmt.Printf("%d chat(s) found. Re-run with --register to track them.\n", len(chats))
		}
		return nil
	},
}
