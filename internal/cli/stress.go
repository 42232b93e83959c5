package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"community_forum/pkg/utils"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// StressOptions 压测参数：一个帖子下并发创建 Users 条评论
type StressOptions struct {
	BaseURL     string
	CommunityID string
	PostID      string
	Users       int
	Concurrency int
}

// StressResult 压测结果
type StressResult struct {
	Requests int
	Success  int64
	Failed   int64
	Duration time.Duration
}

// QPS 每秒请求数
func (r StressResult) QPS() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Requests) / r.Duration.Seconds()
}

// NewStressCommand 对运行中的服务做评论写入压测。结束后帖子的 totalComment 应等于成功数。
func NewStressCommand() *cobra.Command {
	opts := StressOptions{}
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Create comments concurrently against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "开始压测：%d 个用户并发评论帖子 %s ...\n", opts.Users, opts.PostID)

			res, err := Stress(cmd.Context(), newStressClient(opts.Concurrency), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "--------------------------------------------------")
			fmt.Fprintf(out, "压测结束，耗时: %v\n", res.Duration)
			fmt.Fprintf(out, "总请求数: %d\n", res.Requests)
			fmt.Fprintf(out, "QPS: %.2f\n", res.QPS())
			fmt.Fprintf(out, "评论成功: %d (totalComment 预期: %d)\n", res.Success, res.Success)
			fmt.Fprintf(out, "评论失败: %d\n", res.Failed)
			fmt.Fprintln(out, "--------------------------------------------------")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.BaseURL, "url", "http://localhost:8080", "server base url")
	f.StringVar(&opts.CommunityID, "community", "stress-community", "community id to create")
	f.StringVar(&opts.PostID, "post", "stress-post", "post id to comment on")
	f.IntVar(&opts.Users, "users", 1000, "number of concurrent commenters")
	f.IntVar(&opts.Concurrency, "concurrency", 200, "max in-flight requests")
	return cmd
}

func newStressClient(conns int) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = conns
	t.MaxIdleConnsPerHost = conns
	t.MaxConnsPerHost = conns
	return &http.Client{Transport: t, Timeout: 10 * time.Second}
}

// Stress 先以管理员身份创建社区与帖子，再并发创建评论
func Stress(ctx context.Context, client *http.Client, opts StressOptions) (StressResult, error) {
	if opts.Users <= 0 {
		return StressResult{}, errors.New("users must be positive")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = opts.Users
	}

	if err := callable(ctx, client, opts.BaseURL, stressAdmin, "createCommunity", communityPayload(opts)); err != nil {
		return StressResult{}, errors.Wrap(err, "create community")
	}
	if err := callable(ctx, client, opts.BaseURL, stressAdmin, "createPost", postPayload(opts)); err != nil {
		return StressResult{}, errors.Wrap(err, "create post")
	}

	res := StressResult{Requests: opts.Users}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	var mu sync.Mutex
	var firstErr error
	start := time.Now()
	for i := 1; i <= opts.Users; i++ {
		userID := fmt.Sprintf("stress-user-%d", i)
		g.Go(func() error {
			err := callable(gctx, client, opts.BaseURL, userID, "createComment", commentPayload(opts, userID))
			if err != nil {
				atomic.AddInt64(&res.Failed, 1)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			atomic.AddInt64(&res.Success, 1)
			return nil
		})
	}
	_ = g.Wait()
	res.Duration = time.Since(start)

	if res.Success == 0 && firstErr != nil {
		return res, errors.Wrap(firstErr, "all requests failed")
	}
	return res, nil
}

const (
	stressAdmin   = "stress-admin"
	stressPicture = "https://cdn.example.com/stress.png"
)

func communityPayload(opts StressOptions) map[string]any {
	return map[string]any{
		"communityID":    opts.CommunityID,
		"name":           "Stress",
		"department":     "Stress",
		"description":    "load test community",
		"adminList":      []string{stressAdmin},
		"profilePicture": stressPicture,
	}
}

func postPayload(opts StressOptions) map[string]any {
	return map[string]any{
		"postID":      opts.PostID,
		"communityID": opts.CommunityID,
		"creator":     creatorOf(stressAdmin),
		"title":       "stress",
		"content":     "load test post",
	}
}

func commentPayload(opts StressOptions, userID string) map[string]any {
	return map[string]any{
		"commentID":   "c-" + userID,
		"postID":      opts.PostID,
		"communityID": opts.CommunityID,
		"creator":     creatorOf(userID),
		"content":     "hello from " + userID,
	}
}

func creatorOf(userID string) map[string]any {
	return map[string]any{
		"creatorID":      userID,
		"name":           userID,
		"department":     "Stress",
		"profilePicture": stressPicture,
	}
}

// callable 以 userID 的身份调用 /callable/<name>，要求 HTTP 200 且业务码为 0
func callable(ctx context.Context, client *http.Client, baseURL, userID, name string, body any) error {
	token, _, err := utils.GenerateToken(userID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/callable/"+name, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var result struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return errors.Wrapf(err, "%s: decode response (status %d)", name, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || result.Code != 0 {
		return errors.Errorf("%s: status %d code %d: %s", name, resp.StatusCode, result.Code, result.Message)
	}
	return nil
}
