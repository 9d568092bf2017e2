package skinfilter

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/esimov/skinfilter/utils"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// validExtensions lists the supported image files.
var validExtensions = []string{".jpg", ".png", ".jpeg", ".bmp", ".gif"}

// Ops describes the source and destination of a run.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
}

// result holds the relevant information about the processed image.
type result struct {
	path string
	err  error
}

// Execute runs the skin detection over a single image, a pipe, a URL or
// every image of a directory. Directories are processed concurrently.
func (p *Processor) Execute(op *Ops) error {
	var (
		fs  os.FileInfo
		src = op.Src
		err error
	)

	if err := p.loadFaceDetector(); err != nil {
		return err
	}

	// Check if source path is a local image or URL.
	if utils.IsValidUrl(src) {
		f, err := utils.DownloadImage(src)
		if f != nil {
			defer os.Remove(f.Name())
			defer f.Close()
		}
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
		src = f.Name()
	}

	// Check if the source is a pipe name or a regular file.
	if src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(src)
	}
	if err != nil {
		return fmt.Errorf("failed to load the source image: %w", err)
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		if op.Dst == op.PipeName {
			return errors.New("a directory source needs a destination directory, not a pipe")
		}
		if err := p.executeDir(op, src); err != nil {
			return err
		}
	case mode.IsRegular() || mode&os.ModeNamedPipe != 0: // check for regular files or pipe names
		ext := filepath.Ext(op.Dst)
		if !isValidExtension(ext, validExtensions) && op.Dst != op.PipeName {
			return fmt.Errorf("%v file type not supported", ext)
		}
		if err := op.process(p, src, op.Dst); err != nil {
			return err
		}
		op.printOpStatus(op.Dst, nil)
	default:
		return fmt.Errorf("unsupported source: %s", op.Src)
	}

	fmt.Fprintf(os.Stderr, "\nExecution time: %s\n",
		utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	return nil
}

// executeDir walks the source directory and processes the images with a bounded number of workers.
func (p *Processor) executeDir(op *Ops, src string) error {
	var (
		wg     sync.WaitGroup
		failed int
	)
	// Read destination file or directory.
	if _, err := os.Stat(op.Dst); err != nil {
		if err := os.MkdirAll(op.Dst, 0755); err != nil {
			return fmt.Errorf("unable to create the destination directory: %w", err)
		}
	}

	// Every worker would overwrite the same plot file.
	proc := *p
	proc.PlotPath = ""
	proc.Spinner = nil

	// Limit the concurrently running workers to maxWorkers.
	workers := op.Workers
	if workers <= 0 || workers > maxWorkers {
		workers = runtime.NumCPU()
	}

	ch := make(chan result)
	done := make(chan interface{})
	defer close(done)

	paths, errc := walkDir(done, src, validExtensions)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			op.consumer(&proc, src, op.Dst, ch, done, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	// Consume the channel values.
	for res := range ch {
		if res.err != nil {
			failed++
		}
		op.printOpStatus(res.path, res.err)
	}

	if err := <-errc; err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d image(s) could not be processed", failed)
	}
	return nil
}

// consumer reads the path names from the paths channel and runs the skin detection over the source image.
// The output keeps the image's path relative to the source root.
func (op *Ops) consumer(
	p *Processor,
	root, dest string,
	res chan<- result,
	done <-chan interface{},
	paths <-chan string,
) {
	for src := range paths {
		dst, err := destPath(root, dest, src)
		if err == nil {
			err = op.process(p, src, dst)
		}

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// destPath maps a file found under root to the same relative path under dest,
// creating the missing parent directories.
func destPath(root, dest, src string) (string, error) {
	rel, err := filepath.Rel(root, src)
	if err != nil {
		return "", fmt.Errorf("unable to resolve the destination of %s: %w", src, err)
	}
	dst := filepath.Join(dest, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("unable to create the destination directory: %w", err)
	}
	return dst, nil
}

// process runs the processor over the source image and returns the error in case exists.
func (op *Ops) process(p *Processor, in, out string) error {
	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}

	if p.Spinner != nil {
		// Capture CTRL-C signal and restores back the cursor visibility.
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
		finished := make(chan struct{})
		defer func() {
			signal.Stop(signalChan)
			close(finished)
		}()
		go func() {
			select {
			case <-signalChan:
				p.Spinner.RestoreCursor()
				os.Exit(1)
			case <-finished:
			}
		}()

		// Start the progress indicator.
		p.Spinner.Start()
	}

	defer func() {
		if img, ok := src.(*os.File); ok && img != os.Stdin {
			if err := img.Close(); err != nil {
				log.Printf("could not close the opened file: %v", err)
			}
		}
	}()

	err = p.Process(src, dst)

	if img, ok := dst.(*os.File); ok && img != os.Stdout {
		if cerr := img.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			// remove the generated image file in case of an error
			os.Remove(img.Name())
		}
	}

	if p.Spinner != nil {
		if err != nil {
			p.Spinner.StopMsg = utils.StatusLine("skin detection failed ✘", utils.ErrorMessage)
		} else {
			p.Spinner.StopMsg = utils.StatusLine("⇢ the skin pixels have been detected ✔", utils.SuccessMessage)
		}
		// Stop the progress indicator.
		p.Spinner.Stop()
	}
	return err
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
	}
	return src, dst, nil
}

// printOpStatus displays the relevant information about the processed image.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s%s",
			utils.DecorateText(fmt.Sprintf("\nError processing %s", filepath.Base(fname)), utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err.Error()), utils.DefaultMessage),
		)
		return
	}
	if fname != op.PipeName {
		fmt.Fprintf(os.Stderr, "\nThe image has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan interface{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}
			if isValidExtension(filepath.Ext(f.Name()), srcExts) {
				select {
				case <-done:
					return errors.New("directory walk cancelled")
				case pathChan <- path:
				}
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}
