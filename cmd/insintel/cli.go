package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/xxxsen/insintel/internal/backend"
	"github.com/xxxsen/insintel/internal/config"
	"github.com/xxxsen/insintel/internal/model"
)

type backendFlags struct {
	baseURL string
	timeout time.Duration
}

func (f *backendFlags) bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.baseURL, "backend", "", "backend base url (default $INSINTEL_BACKEND_URL or "+config.DefaultBackendURL+")")
	cmd.PersistentFlags().DurationVar(&f.timeout, "timeout", 0, "request timeout, 0 for none")
}

func (f *backendFlags) client() *backend.Client {
	base := f.baseURL
	if base == "" {
		base = os.Getenv("INSINTEL_BACKEND_URL")
	}
	if base == "" {
		base = config.DefaultBackendURL
	}
	return backend.New(base, backend.WithTimeout(f.timeout))
}

func newQueryCmd() *cobra.Command {
	var flags backendFlags
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "ask the backend a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := flags.client().Query(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			var out model.QueryResult
			if err := resp.Decode(&out); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, out.Response)
			for i, src := range out.Sources {
				fmt.Fprintf(w, "[%d] %s\n", i+1, src)
			}
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newDocumentsCmd() *cobra.Command {
	var flags backendFlags
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "manage backend documents",
	}
	flags.bind(cmd)

	list := &cobra.Command{
		Use:   "list",
		Short: "list uploaded documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := flags.client().ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Body)
		},
	}
	upload := &cobra.Command{
		Use:   "upload <file.xlsx>...",
		Short: "upload spreadsheets in one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadFiles(args)
			if err != nil {
				return err
			}
			resp, err := flags.client().UploadDocuments(cmd.Context(), files)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Body)
		},
	}
	remove := &cobra.Command{
		Use:   "delete",
		Short: "delete every document",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := flags.client().DeleteDocuments(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Body)
		},
	}
	cmd.AddCommand(list, upload, remove)
	return cmd
}

func loadFiles(paths []string) ([]model.UploadFile, error) {
	files := make([]model.UploadFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, model.UploadFile{
			Field:       "files",
			Filename:    filepath.Base(p),
			ContentType: mimetype.Detect(data).String(),
			Data:        data,
		})
	}
	return files, nil
}

func printJSON(w io.Writer, body []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		_, err = w.Write(body)
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}
