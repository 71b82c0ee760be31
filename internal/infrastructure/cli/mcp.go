package cli

import (
	"os"
	"strings"

	inframcp "github.com/felixgeelhaar/specaudit/internal/infrastructure/mcp"
	"github.com/spf13/cobra"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the specaudit MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		server, err := inframcp.NewServerWithServices(services)
		if err != nil {
			return err
		}
		if os.Getenv("SPECAUDIT_SKIP_MCP_START") == "true" {
			return nil
		}
		return ignoreCanceled(server.Serve(cmd.Context(), strings.ToLower(mcpTransport), mcpAddr))
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport to use (stdio, http, ws, grpc)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", ":8090", "Address for http/ws/grpc transports")
	RootCmd.AddCommand(mcpCmd)
}
