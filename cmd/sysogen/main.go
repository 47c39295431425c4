// Command sysogen compiles manifests, icons and version information into a
// .syso object file that the Go toolchain links into Windows builds.
//
// Usage:
//
//	sysogen -manifest app.manifest -icon app.ico -product-name MyApp -o rsrc_windows_amd64.syso
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/sidit77/embedinator"
)

type stringList []string

func (l *stringList) String() string {
	return fmt.Sprint(*l)
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var (
		out            string
		archName       string
		manifestPath   string
		icons          stringList
		fileVersion    string
		productVersion string
		productName    string
		description    string
		verbose        bool
	)
	flag.StringVar(&out, "o", "", "Output path (default rsrc_windows_<arch>.syso)")
	flag.StringVar(&archName, "arch", runtime.GOARCH, "Target architecture (amd64, 386, arm64)")
	flag.StringVar(&manifestPath, "manifest", "", "Path to the application manifest")
	flag.Var(&icons, "icon", "Path to an .ico file, may be repeated; the first becomes the application icon")
	flag.StringVar(&fileVersion, "file-version", "", "File version, e.g. 1.2.3.4")
	flag.StringVar(&productVersion, "product-version", "", "Product version, e.g. 1.2.3")
	flag.StringVar(&productName, "product-name", "", "Product name for the version resource")
	flag.StringVar(&description, "description", "", "File description for the version resource")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	logger := buildLogger(verbose)
	defer logger.Sync()

	if manifestPath == "" && len(icons) == 0 && fileVersion == "" && productVersion == "" {
		flag.Usage()
		os.Exit(1)
	}

	arch, err := embedinator.ParseArch(archName)
	if err != nil {
		logger.Fatal("Invalid architecture", zap.String("arch", archName), zap.Error(err))
	}

	b := embedinator.New(arch)
	b.SetLogger(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	})
	if out != "" {
		b.SetOutput(out)
	}

	if manifestPath != "" {
		text, err := os.ReadFile(manifestPath)
		if err != nil {
			logger.Fatal("Failed to read manifest", zap.String("path", manifestPath), zap.Error(err))
		}
		if err := b.AddManifest(string(text)); err != nil {
			logger.Fatal("Failed to add manifest", zap.String("path", manifestPath), zap.Error(err))
		}
		logger.Info("Added manifest", zap.String("path", manifestPath))
	}

	// The smallest group id wins as the application icon, so the first
	// -icon flag gets id 1 and the rest follow in order.
	for i, path := range icons {
		icon, err := loadICO(path)
		if err != nil {
			logger.Fatal("Failed to read icon", zap.String("path", path), zap.Error(err))
		}
		if err := b.AddIcon(uint16(i+1), icon); err != nil {
			logger.Fatal("Failed to add icon", zap.String("path", path), zap.Error(err))
		}
		logger.Info("Added icon", zap.String("path", path), zap.Int("group", i+1))
	}

	if err := applyVersion(b, fileVersion, productVersion, productName, description); err != nil {
		logger.Fatal("Invalid version information", zap.Error(err))
	}

	if err := b.Finish(); err != nil {
		logger.Fatal("Failed to write object file", zap.Error(err))
	}
	logger.Info("Done")
}

func buildLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %s\n", err)
		os.Exit(1)
	}
	return logger
}

func applyVersion(b *embedinator.ResourceBuilder, fileVersion, productVersion, productName, description string) error {
	if fileVersion != "" {
		v, err := embedinator.ParseVersion(fileVersion)
		if err != nil {
			return err
		}
		b.SetFileVersion(v)
		b.AddVersionString("FileVersion", fileVersion)
	}
	if productVersion != "" {
		v, err := embedinator.ParseVersion(productVersion)
		if err != nil {
			return err
		}
		b.SetProductVersion(v)
		b.AddVersionString("ProductVersion", productVersion)
	}
	if productName != "" {
		b.AddVersionString("ProductName", productName)
		if description == "" {
			description = productName
		}
	}
	if description != "" {
		b.AddVersionString("FileDescription", description)
	}
	return nil
}
