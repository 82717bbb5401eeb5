package cli

import (
	"github.com/spf13/cobra"

	"github.com/scribbleink/scribble/internal/api"
)

// serveCommand creates the serve command for running the HTTP render service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noCache   bool
		maxUpload int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render service",
		Long: `Run the HTTP render service.

POST /render accepts a multipart image upload plus drawing parameters
(the options file keys) and responds with the rendered artifact in the
requested format. GET /healthz reports liveness and the version.

The service shares the local cache with generate, scoped under its own
keys. The process runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cch, err := newCache(noCache)
			if err != nil {
				return err
			}
			srv := api.NewServer(api.Config{
				Cache:     cch,
				Logger:    c.Logger,
				MaxUpload: maxUpload,
			})
			defer srv.Close()
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", api.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Int64Var(&maxUpload, "max-upload", api.DefaultMaxUpload, "maximum request body size in bytes")

	return cmd
}
