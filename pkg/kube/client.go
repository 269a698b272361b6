package kube

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"
)

// ClusterInfo identifies the cluster a scan ran against
type ClusterInfo struct {
	Context string
	Cluster string
	User    string
	Version string
}

// Client bundles the clientsets a scan needs
type Client struct {
	Clientset     kubernetes.Interface
	MetricsClient metricsv.Interface
	Info          ClusterInfo
}

// New builds a client from in-cluster config when running inside a pod,
// falling back to the local kubeconfig.
func New() (*Client, error) {
	restConfig, info, err := loadConfig()
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	metricsClient, err := metricsv.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}

	return &Client{
		Clientset:     clientset,
		MetricsClient: metricsClient,
		Info:          info,
	}, nil
}

func loadConfig() (*rest.Config, ClusterInfo, error) {
	if restConfig, err := rest.InClusterConfig(); err == nil {
		return restConfig, ClusterInfo{Context: "in-cluster", Cluster: "in-cluster"}, nil
	}

	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		if home := homedir.HomeDir(); home != "" {
			kubeconfig = filepath.Join(home, ".kube", "config")
		}
	}

	restConfig, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, ClusterInfo{}, fmt.Errorf("failed to build config: %w", err)
	}

	info := ClusterInfo{Context: "unknown", Cluster: "unknown", User: "unknown"}
	rawConfig, err := clientcmd.LoadFromFile(kubeconfig)
	if err == nil && rawConfig.CurrentContext != "" {
		info.Context = rawConfig.CurrentContext
		if ctx, ok := rawConfig.Contexts[rawConfig.CurrentContext]; ok {
			if ctx.Cluster != "" {
				info.Cluster = ctx.Cluster
			}
			if ctx.AuthInfo != "" {
				info.User = ctx.AuthInfo
			}
		}
	}

	return restConfig, info, nil
}
