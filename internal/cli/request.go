package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	http "github.com/wesleyorama2/curlkit/http"
	"github.com/wesleyorama2/curlkit/internal/config"
	"github.com/wesleyorama2/curlkit/internal/output"
)

// transportFlags configure the Builder. Flags left unset fall back to the
// config file.
type transportFlags struct {
	headers        []string
	proxy          string
	proxyUser      string
	proxyType      string
	timeout        time.Duration
	connectTimeout time.Duration
	location       bool
	maxRedirs      int
	referer        string
	autoReferer    bool
	cookieFile     string
	cookieJar      string
	insecure       bool
}

// register adds the transport flags to cmd. Cookie files are left out when
// cookies is false.
func (f *transportFlags) register(cmd *cobra.Command, cookies bool) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.headers, "header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
	flags.StringVarP(&f.proxy, "proxy", "x", "", "Proxy descriptor, [scheme://][user[:pass]@]host:port")
	flags.StringVar(&f.proxyUser, "proxy-user", "", "Proxy credentials as user:password")
	flags.StringVar(&f.proxyType, "proxy-type", "", "Proxy protocol (http, https, socks4, socks5)")
	flags.DurationVarP(&f.timeout, "timeout", "t", 30*time.Second, "Request timeout")
	flags.DurationVar(&f.connectTimeout, "connect-timeout", 0, "Connection timeout")
	flags.BoolVarP(&f.location, "location", "L", false, "Follow redirects")
	flags.IntVar(&f.maxRedirs, "max-redirs", 10, "Maximum number of redirects to follow")
	flags.StringVarP(&f.referer, "referer", "e", "", "Referer header to send")
	flags.BoolVar(&f.autoReferer, "auto-referer", false, "Set the Referer header when following redirects")
	flags.BoolVarP(&f.insecure, "insecure", "k", false, "Skip TLS certificate verification")
	if cookies {
		flags.StringVarP(&f.cookieFile, "cookie-file", "b", "", "Read cookies from a Netscape cookie file")
		flags.StringVarP(&f.cookieJar, "cookie-jar", "c", "", "Write received cookies to a Netscape cookie file")
	}
}

// requestOptions holds the flags of a verb command
type requestOptions struct {
	transportFlags
	bodyFlags
	extractFlags
	silent bool
}

func newRequestCmd(a *app, method http.Method) *cobra.Command {
	opts := &requestOptions{}
	name := strings.ToLower(method.String())

	cmd := &cobra.Command{
		Use:   name + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd, method, args[0], opts)
		},
	}
	if !method.AcceptsBody() {
		cmd.Long = fmt.Sprintf("Make a %s request to the specified URL. %s requests carry no body, so body flags are ignored.", method, method)
	}

	opts.transportFlags.register(cmd, true)
	opts.bodyFlags.register(cmd)
	opts.extractFlags.register(cmd)
	cmd.Flags().BoolVarP(&opts.silent, "silent", "s", false, "Print only extracted values, not the response")

	return cmd
}

func (a *app) runRequest(cmd *cobra.Command, method http.Method, target string, opts *requestOptions) error {
	b, err := a.newBuilder(cmd, &opts.transportFlags)
	if err != nil {
		return err
	}

	body, enc, err := opts.bodyFlags.build()
	if err != nil {
		return err
	}
	if body != nil && !method.AcceptsBody() {
		a.logger.Warn().Str("method", method.String()).Msg("request body ignored")
	}

	url, headers := a.resolveTarget(target, opts.headers)
	resp, err := b.Send(cmd.Context(), method.String(), url, headers, body, enc)
	if err != nil {
		return err
	}

	formatter := output.GetFormatter(a.format, a.opts.verbose, a.noColor)
	out := cmd.OutOrStdout()
	if !opts.silent {
		if a.opts.verbose {
			fmt.Fprint(out, formatter.FormatRequest(b.Spec()))
		}
		fmt.Fprint(out, formatter.FormatResponse(resp))
	}

	if err := opts.extractFlags.run(out, formatter, resp); err != nil {
		return err
	}
	return resp.TransportError()
}

// newBuilder creates a Builder configured from the config file and flags
func (a *app) newBuilder(cmd *cobra.Command, f *transportFlags) (*http.Builder, error) {
	cfg := a.config
	flags := cmd.Flags()

	b := http.NewBuilder(
		http.WithLogger(a.logger.Logger),
		http.WithDefaultHeaders(a.defaultHeaders()...),
	)

	timeout := cfg.TimeoutDuration()
	if flags.Changed("timeout") || timeout == 0 {
		timeout = f.timeout
	}
	connectTimeout := cfg.ConnectTimeoutDuration()
	if flags.Changed("connect-timeout") {
		connectTimeout = f.connectTimeout
	}
	follow := cfg.Defaults.Follow
	if flags.Changed("location") {
		follow = f.location
	}
	maxRedirs := cfg.Defaults.MaxRedirects
	if flags.Changed("max-redirs") || maxRedirs == 0 {
		maxRedirs = f.maxRedirs
	}

	b.SetTimeout(timeout).
		SetConnectTimeout(connectTimeout).
		SetFollow(follow).
		SetMaxRedirects(maxRedirs).
		SetMaxConnections(cfg.Defaults.MaxConnections).
		SetReferer(pick(f.referer, cfg.Defaults.Referer)).
		SetAutoReferer(f.autoReferer || cfg.Defaults.AutoReferer).
		SetCookieFile(pick(f.cookieFile, cfg.Cookies.File)).
		SetCookieJar(pick(f.cookieJar, cfg.Cookies.Jar)).
		SetInsecure(f.insecure || cfg.Defaults.Insecure).
		SetDebug(a.opts.verbose)

	if err := configureProxy(b, f, cfg.Proxy); err != nil {
		return nil, err
	}
	return b, nil
}

func configureProxy(b *http.Builder, f *transportFlags, cfg config.ProxyConfig) error {
	descriptor := pick(f.proxy, cfg.URL)
	if descriptor == "" {
		return nil
	}
	if err := b.SetProxy(descriptor); err != nil {
		return err
	}

	if proxyType := pick(f.proxyType, cfg.Type); proxyType != "" {
		if err := b.SetProxyType(http.ProxyTypeFor(proxyType)); err != nil {
			return err
		}
	}

	user, pass := cfg.Username, cfg.Password
	if f.proxyUser != "" {
		var ok bool
		user, pass, ok = strings.Cut(f.proxyUser, ":")
		if !ok {
			return fmt.Errorf("%w: --proxy-user must be user:password", http.ErrConfiguration)
		}
	}
	if user != "" {
		return b.SetProxyAuth(user, pass)
	}
	return nil
}

// defaultHeaders returns the header lines every request starts with:
// config defaults, then environment headers, then the user agent.
func (a *app) defaultHeaders() []string {
	headers := a.config.Defaults.Headers
	if a.env != nil {
		headers = config.MergeEnvironments(headers, config.ProcessEnvironmentInMap(a.env.Headers, a.env.Vars))
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names)+1)
	for _, name := range names {
		lines = append(lines, name+": "+headers[name])
	}
	if ua := a.config.Defaults.UserAgent; ua != "" {
		lines = append(lines, "User-Agent: "+ua)
	}
	return lines
}

// resolveTarget applies the selected environment to the URL and to the
// header flags.
func (a *app) resolveTarget(target string, headers []string) (string, []string) {
	if a.env == nil {
		return target, headers
	}
	resolved := make([]string, len(headers))
	for i, h := range headers {
		resolved[i] = config.ProcessEnvironment(h, a.env.Vars)
	}
	return a.env.ResolveURL(target), resolved
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
