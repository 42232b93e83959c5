package push

import (
	"encoding/json"
	"strings"

	"community_forum/internal/pkg/config"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/push"
	"github.com/pkg/errors"
)

// maxAccountsPerPush 阿里云 ACCOUNT 推送单次最多 100 个账号
const maxAccountsPerPush = 100

// ErrNotConfigured 推送未配置
var ErrNotConfigured = errors.New("push config is missing")

// PushService 按账号（用户 ID）推送通知
type PushService interface {
	PushToAccounts(accountIDs []string, title, body string, extParameters map[string]string) error
}

type AliyunPushService struct {
	client *push.Client
	appKey int64
}

func NewAliyunPushService(cfg config.PushConfig) (*AliyunPushService, error) {
	if cfg.AccessKeyID == "" || cfg.AppKey == 0 {
		return nil, ErrNotConfigured
	}

	client, err := push.NewClientWithAccessKey(cfg.RegionID, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "push: create client")
	}

	return &AliyunPushService{client: client, appKey: cfg.AppKey}, nil
}

// PushToAccounts 分批推送，任一批失败即返回
func (s *AliyunPushService) PushToAccounts(accountIDs []string, title, body string, extParameters map[string]string) error {
	for _, chunk := range Chunk(accountIDs, maxAccountsPerPush) {
		if err := s.sendPush("ACCOUNT", strings.Join(chunk, ","), title, body, extParameters); err != nil {
			return err
		}
	}
	return nil
}

func (s *AliyunPushService) sendPush(target, targetValue, title, body string, extParameters map[string]string) error {
	request := push.CreatePushRequest()
	request.AppKey = requests.NewInteger(int(s.appKey))
	request.Target = target
	request.TargetValue = targetValue
	request.Title = title
	request.Body = body
	request.DeviceType = "ALL"  // iOS & Android
	request.PushType = "NOTICE" // 通知

	// 扩展参数 (JSON 序列化)
	if len(extParameters) > 0 {
		extJSON, err := json.Marshal(extParameters)
		if err != nil {
			return errors.Wrap(err, "push: encode ext parameters")
		}
		request.AndroidExtParameters = string(extJSON)
		request.IOSExtParameters = string(extJSON)
	}

	if _, err := s.client.Push(request); err != nil {
		return errors.Wrapf(err, "push: send to %s", target)
	}
	return nil
}

// Chunk 按 size 切分，保持顺序
func Chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > 0 {
		n := size
		if len(ids) < n {
			n = len(ids)
		}
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}
