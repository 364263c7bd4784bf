package flybase

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

const stocksFilePattern = "stocks_FB%d_%02d.tsv.gz"

var dataVersionPattern = regexp.MustCompile(`FB(\d{4}_\d{2})`)

var collectionToRepository = map[string]string{
	"Bloomington": "bdsc",
	"Vienna":      "vdrc",
	"Kyoto":       "kyoto",
	"NIG-Fly":     "nig",
	"KDRC":        "kdrc",
	"FlyORF":      "flyorf",
	"NDSSC":       "ndssc",
}

var repositoryNames = map[string]string{
	"bdsc":   "Bloomington Drosophila Stock Center",
	"vdrc":   "Vienna Drosophila Resource Center",
	"kyoto":  "Kyoto Stock Center",
	"nig":    "NIG-Fly Stock Center",
	"kdrc":   "Korean Drosophila Resource Center",
	"flyorf": "FlyORF",
	"ndssc":  "National Drosophila Species Stock Center",
}

var repositoryURLs = map[string]string{
	"bdsc":   "https://bdsc.indiana.edu/Home/Search?presearch=%s",
	"vdrc":   "https://stockcenter.vdrc.at/control/product/~VIEW_INDEX=vdrc_catalog_view_index/~VIEW_SIZE=10/~product_id=%s",
	"kyoto":  "https://kyotofly.kit.jp/cgi-bin/stocks/search_res_det.cgi?DB_NUM=1&DESSION=%s",
	"nig":    "https://shigen.nig.ac.jp/fly/nigfly/stock?STOCK_ID=%s",
	"kdrc":   "https://kdrc.cnu.ac.kr/stock/view/%s",
	"flyorf": "https://www.flyorf.ch/stocks/%s",
	"ndssc":  "https://www.drosophila-speciesstock.com/stock/%s",
}

func repositoryName(repository string) string {
	if name, ok := repositoryNames[repository]; ok {
		return name
	}
	return strings.ToUpper(repository)
}

func repositoryURL(repository, stockNumber string) string {
	pattern, ok := repositoryURLs[repository]
	if !ok {
		return ""
	}
	return fmt.Sprintf(pattern, stockNumber)
}

func flyBaseURL(flyBaseID string) string {
	return "https://flybase.org/reports/" + flyBaseID
}

// Loader downloads the FlyBase stocks dump and feeds it into a Catalog.
type Loader struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

func NewLoader(baseURL string, timeout time.Duration, logger *logrus.Logger) *Loader {
	return &Loader{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/",
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Load finds the current stocks file, downloads it and replaces the catalog
// contents.
func (l *Loader) Load(ctx context.Context, catalog *Catalog) (int, error) {
	url, err := l.findStocksFileURL(ctx)
	if err != nil {
		return 0, err
	}
	l.logger.WithField("url", url).Info("downloading FlyBase stocks")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.Wrap(err, "build request")
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "download stocks file")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("download stocks file: status %d", resp.StatusCode)
	}

	stocks, err := ParseStocksTSV(resp.Body)
	if err != nil {
		return 0, err
	}

	catalog.Replace(stocks, dataVersionFromURL(url))
	l.logger.WithField("stocks", catalog.Len()).Info("FlyBase catalog loaded")
	return catalog.Len(), nil
}

// findStocksFileURL probes recent release filenames, newest first. The
// release listing needs HTML scraping, so direct probing is simpler and good
// enough.
func (l *Loader) findStocksFileURL(ctx context.Context) (string, error) {
	now := time.Now()
	for i := 0; i < 6; i++ {
		probe := now.AddDate(0, -i, 0)
		url := l.baseURL + fmt.Sprintf(stocksFilePattern, probe.Year(), int(probe.Month()))
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return "", errors.Wrap(err, "build request")
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return "", errors.Wrap(err, "probe stocks file")
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return url, nil
		}
	}
	return "", errors.New("could not find FlyBase stocks file")
}

// ParseStocksTSV reads a gzipped TSV stocks dump into catalog entries.
func ParseStocksTSV(r io.Reader) ([]Stock, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read TSV header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	get := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var stocks []Stock
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read TSV record")
		}

		collection := get(record, "collection_short_name")
		repository, ok := collectionToRepository[collection]
		if !ok {
			repository = "other"
		}
		genotype := get(record, "FB_genotype")
		if genotype == "" {
			genotype = get(record, "description")
		}

		stocks = append(stocks, Stock{
			ExternalID: get(record, "stock_number"),
			FlyBaseID:  get(record, "FBst"),
			Genotype:   genotype,
			Species:    get(record, "species"),
			StockType:  get(record, "stock_type_cv"),
			Collection: collection,
			Repository: repository,
		})
	}
	return stocks, nil
}

func dataVersionFromURL(url string) string {
	if match := dataVersionPattern.FindStringSubmatch(url); match != nil {
		return "FB" + match[1]
	}
	return "unknown"
}
