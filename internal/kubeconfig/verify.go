package kubeconfig

import (
	"context"
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/younes-nb/k8s-cluster-setup/internal/util/retry"
)

// VerifyConnectivity issues a trivial read-only query against the cluster
// through the freshly installed credential. A failure here is a
// connectivity problem, not a retrieval problem; callers surface it as a
// warning. The short retry covers an API server still settling behind the
// load balancer.
func VerifyConnectivity(ctx context.Context, kubeconfigPath string) error {
	restCfg, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return fmt.Errorf("failed to parse kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	err = retry.WithExponentialBackoff(ctx, func() error {
		_, listErr := clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{Limit: 1})
		return listErr
	},
		retry.WithMaxRetries(3),
		retry.WithInitialDelay(2*time.Second),
		retry.WithMaxDelay(10*time.Second),
	)
	if err != nil {
		return fmt.Errorf("cluster unreachable through %s: %w (check API server reachability, certificate SANs, and the HAProxy frontend)",
			kubeconfigPath, err)
	}
	return nil
}
