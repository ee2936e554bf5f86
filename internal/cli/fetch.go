package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fbvideodl/internal/client"
	"fbvideodl/internal/httputil"
	"fbvideodl/pkg/models"
)

type fetchOptions struct {
	server  string
	quality string
	info    bool
	json    bool
	output  string
}

func (a *app) newFetchCommand() *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Look up a video through a running server",
		Example: `  fbvideodl fetch https://www.facebook.com/watch/?v=123
  fbvideodl fetch --quality 720p --output clip.mp4 https://fb.watch/abc/
  fbvideodl fetch --info --json https://www.facebook.com/reel/456`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFetch(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.server, "server", "s", "", "API server URL (default: derived from HOST and PORT)")
	cmd.Flags().StringVarP(&opts.quality, "quality", "q", "", "Quality: best | worst | 360p | 720p | 1080p")
	cmd.Flags().BoolVar(&opts.info, "info", false, "Fetch metadata only")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Print the raw JSON response")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Download the video to this file through the server")

	return cmd
}

func (a *app) runFetch(cmd *cobra.Command, opts *fetchOptions, videoURL string) error {
	if opts.info && opts.output != "" {
		return fmt.Errorf("--info and --output cannot be combined")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	server := opts.server
	if server == "" {
		server = a.localServerURL()
	}
	c := client.New(server, nil)

	var (
		resp *models.VideoResponse
		err  error
	)
	if opts.info {
		resp, err = c.Info(ctx, videoURL, opts.quality)
	} else {
		resp, err = c.Download(ctx, videoURL, opts.quality)
	}
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	} else {
		printSummary(out, resp)
	}

	if opts.output == "" {
		return nil
	}
	if resp.DownloadURL == "" {
		return fmt.Errorf("server returned no download URL")
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	name := httputil.SanitizeFilename(opts.output)
	id := strings.TrimSuffix(name, filepath.Ext(name))
	n, err := c.Stream(ctx, id, resp.DownloadURL, f)
	if err != nil {
		return err
	}

	printf(cmd.ErrOrStderr(), "Saved %d bytes to %s\n", n, opts.output)
	return nil
}

// localServerURL points at the configured server, replacing a wildcard
// bind address with loopback
func (a *app) localServerURL() string {
	host := a.cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(a.cfg.Port))
}

func printSummary(w io.Writer, resp *models.VideoResponse) {
	if info := resp.VideoInfo; info != nil {
		printf(w, "Title:    %s\n", info.Title)
		if info.Uploader != nil {
			printf(w, "Uploader: %s\n", *info.Uploader)
		}
		if info.Duration != nil {
			printf(w, "Duration: %.0fs\n", *info.Duration)
		}
		if info.ViewCount != nil {
			printf(w, "Views:    %d\n", *info.ViewCount)
		}
		if info.UploadDate != nil {
			printf(w, "Uploaded: %s\n", *info.UploadDate)
		}
	}

	if resp.DownloadURL != "" {
		printf(w, "Download: %s\n", resp.DownloadURL)
	}

	if len(resp.AvailableFormats) == 0 {
		return
	}

	printf(w, "Formats:\n")
	for _, f := range resp.AvailableFormats {
		size := "?"
		if f.FileSize != nil {
			size = strconv.FormatInt(*f.FileSize, 10)
		}
		printf(w, "  %-8s %-12s %-5s %s\n", f.Quality, f.FormatID, f.Ext, size)
	}
}
