package extractor

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yuqing/billmerge/extractor/alipay"
	"github.com/yuqing/billmerge/extractor/common"
	"github.com/yuqing/billmerge/extractor/wechat"
)

// Bills holds everything parsed from one input directory: one accumulated
// batch per provider, nil when no usable file of that provider was found.
type Bills struct {
	WeChat *common.Batch
	Alipay *common.Batch

	WeChatFiles []string
	AlipayFiles []string
}

// Empty reports whether no provider produced any data.
func (b *Bills) Empty() bool {
	return b.WeChat.Count() == 0 && b.Alipay.Count() == 0
}

// FindBillFiles scans dir for bill exports, classifying them by extension
// and filename marker: WeChat exports are xlsx files whose name carries the
// WeChat marker, Alipay exports are csv files carrying the Alipay marker.
func FindBillFiles(dir string) (wechatFiles, alipayFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	wcSuffix := viper.GetString("providers.wechat.file_suffix")
	wcMarker := viper.GetString("providers.wechat.file_marker")
	apSuffix := viper.GetString("providers.alipay.file_suffix")
	apMarker := viper.GetString("providers.alipay.file_marker")

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, wcSuffix) && strings.Contains(name, wcMarker):
			wechatFiles = append(wechatFiles, filepath.Join(dir, name))
		case strings.HasSuffix(name, apSuffix) && strings.Contains(name, apMarker):
			alipayFiles = append(alipayFiles, filepath.Join(dir, name))
		}
	}
	return wechatFiles, alipayFiles, nil
}

// ExecuteAgainstPath parses every bill export under dir into per-provider
// batches. A file the parser cannot use contributes zero records and is
// logged; it never aborts the run.
func ExecuteAgainstPath(dir string) (*Bills, error) {
	wechatFiles, alipayFiles, err := FindBillFiles(dir)
	if err != nil {
		return nil, err
	}

	bills := &Bills{WeChatFiles: wechatFiles, AlipayFiles: alipayFiles}

	for _, path := range wechatFiles {
		log.Println("📄 Reading WeChat bill", path)
		batch, err := wechat.ExtractFile(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		if bills.WeChat == nil {
			bills.WeChat = batch
		} else {
			bills.WeChat.Append(batch)
		}
	}

	for _, path := range alipayFiles {
		log.Println("📄 Reading Alipay bill", path)
		batch, err := alipay.ExtractFile(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		if bills.Alipay == nil {
			bills.Alipay = batch
		} else {
			bills.Alipay.Append(batch)
		}
	}

	return bills, nil
}
