package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidfetch/vidfetch/cookie"
	"github.com/vidfetch/vidfetch/download"
	"github.com/vidfetch/vidfetch/extractor"
	"github.com/vidfetch/vidfetch/fetcher"
	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/vidfetch/vidfetch/key"
	"github.com/vidfetch/vidfetch/log"
	"github.com/vidfetch/vidfetch/network"
	"github.com/vidfetch/vidfetch/pipeline"
	"github.com/vidfetch/vidfetch/progress"
	"github.com/vidfetch/vidfetch/resolver"
	"github.com/vidfetch/vidfetch/where"
)

// services holds the collaborators built from the current configuration.
type services struct {
	pipeline  *pipeline.Service
	resolver  *resolver.Resolver
	extractor *extractor.Extractor
	fetcher   *fetcher.Fetcher
}

func newServices() (*services, error) {
	client, err := network.NewClient(network.Options{
		Timeout:     time.Duration(viper.GetInt(key.FetchTimeout)) * time.Second,
		Proxy:       viper.GetString(key.FetchProxy),
		Fingerprint: viper.GetBool(key.FetchFingerprint),
	})
	if err != nil {
		return nil, err
	}

	// Zero means "use the default" to fetcher.New, so an explicit zero becomes "none".
	retries := viper.GetInt(key.FetchRetries)
	if retries == 0 {
		retries = -1
	}

	f := fetcher.New(fetcher.Config{
		Client:  client,
		Headers: fetcher.DefaultHeaders(viper.GetString(key.FetchReferer)),
		Retries: retries,
		Logger:  log.Component("fetcher"),
	})

	reporter := progress.NewReporter()
	cdnBase := viper.GetString(key.CDNBase)

	r := resolver.New(resolver.Config{
		Fetcher: f,
		CDNBase: cdnBase,
		Logger:  log.Component("resolver"),
	})

	var remuxer download.Remuxer
	if viper.GetBool(key.DownloadRemux) {
		remuxer = download.NewFFmpeg(viper.GetString(key.FFmpegBinary), log.Component("ffmpeg"))
	}

	d := download.New(download.Config{
		Fetcher:  f,
		Reporter: reporter,
		CDNBase:  cdnBase,
		DelayMin: time.Duration(viper.GetInt(key.DownloadDelayMin)) * time.Millisecond,
		DelayMax: time.Duration(viper.GetInt(key.DownloadDelayMax)) * time.Millisecond,
		Remuxer:  remuxer,
		Logger:   log.Component("download"),
	})

	e := extractor.New(extractor.Config{
		Binary:   viper.GetString(key.ExtractorBinary),
		Proxy:    viper.GetString(key.FetchProxy),
		Referer:  viper.GetString(key.FetchReferer),
		Reporter: reporter,
		Logger:   log.Component("extractor"),
	})

	p := pipeline.New(pipeline.Config{
		Extractor:  e,
		Resolver:   r,
		Downloader: d,
		Reporter:   reporter,
		Cookies:    f,
		Logger:     log.Component("pipeline"),
	})

	return &services{pipeline: p, resolver: r, extractor: e, fetcher: f}, nil
}

// resolveCookie returns the --cookie value, the contents of the file it names
// with a leading "@", or the keyring cookie when neither is given.
func resolveCookie(cmd *cobra.Command) (string, error) {
	raw, _ := cmd.Flags().GetString("cookie")
	raw = strings.TrimSpace(raw)

	if path, ok := strings.CutPrefix(raw, "@"); ok {
		data, err := filesystem.API().ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read cookie file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if raw != "" || !viper.GetBool(key.CookieKeyring) {
		return raw, nil
	}

	saved, err := cookie.Load()
	if err != nil {
		log.Warnf("keyring unavailable: %s", err)
		return "", nil
	}
	return saved, nil
}

// newRequest builds the per call options shared by every command taking a URL.
func newRequest(cmd *cobra.Command) (pipeline.Request, error) {
	raw, err := resolveCookie(cmd)
	if err != nil {
		return pipeline.Request{}, err
	}

	id, _ := cmd.Flags().GetString("id")
	merge := viper.GetBool(key.DownloadMerge)
	if noMerge, err := cmd.Flags().GetBool("no-merge"); err == nil && noMerge {
		merge = false
	}

	return pipeline.Request{
		OutputDir:  where.Downloads(),
		Quality:    viper.GetString(key.DownloadQuality),
		Cookie:     raw,
		Merge:      merge,
		Identifier: strings.TrimSpace(id),
	}, nil
}
