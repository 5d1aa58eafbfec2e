package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	http "github.com/wesleyorama2/curlkit/http"
	"github.com/wesleyorama2/curlkit/internal/output"
)

// proxyInfo is the printable form of a parsed proxy descriptor
type proxyInfo struct {
	Scheme   string `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Address  string `json:"address" yaml:"address"`
	Type     string `json:"type" yaml:"type"`
}

func newProxyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "proxy DESCRIPTOR",
		Short: "Parse a proxy descriptor and print its parts",
		Long: `Parse a proxy descriptor of the form [scheme://][user[:pass]@]host:port and
print its parts. The password is masked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := http.ParseProxy(args[0])
			if err != nil {
				return err
			}

			info := proxyInfo{
				Scheme:   target.Scheme,
				Username: target.Username,
				Host:     target.Host,
				Port:     target.Port,
				Address:  target.Address,
				Type:     target.Type.String(),
			}
			if target.Password != "" {
				info.Password = "***"
			}

			out, err := renderProxy(a.format, info)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func renderProxy(format output.OutputFormat, info proxyInfo) (string, error) {
	switch format {
	case output.FormatJSON:
		data, err := json.MarshalIndent(info, "", "  ")
		return string(data) + "\n", err
	case output.FormatYAML:
		data, err := yaml.Marshal(info)
		return "---\n" + string(data), err
	default:
		var buf strings.Builder
		for _, row := range [][2]string{
			{"Scheme", info.Scheme},
			{"Username", info.Username},
			{"Password", info.Password},
			{"Host", info.Host},
			{"Port", strconv.Itoa(info.Port)},
			{"Address", info.Address},
			{"Type", info.Type},
		} {
			if row[1] == "" {
				continue
			}
			buf.WriteString(fmt.Sprintf("%-9s %s\n", row[0]+":", row[1]))
		}
		return buf.String(), nil
	}
}
